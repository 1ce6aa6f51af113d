package models

import (
	"errors"
)

var ErrUnsupportedKind = errors.New("unsupported content kind")
