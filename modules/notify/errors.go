package notify

import "errors"

var ErrNoRecipient = errors.New("notify: no recipient email address")
