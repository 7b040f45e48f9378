package node

import "github.com/canndrew/netsim-sub001/common/errors"

func newError(msg ...interface{}) *errors.Error { return errors.New(msg...) }
