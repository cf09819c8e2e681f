package storetest

import (
	"errors"

	"github.com/lucmq/go-baselet/baselet"
)

var TestError = errors.New("test error")

// TStore matches the baselet.Store interface.
type TStore = baselet.Store
