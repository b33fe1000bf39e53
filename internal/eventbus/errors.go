package eventbus

import "errors"

// ErrClosed шина уже закрыта
var ErrClosed = errors.New("шина событий закрыта")
