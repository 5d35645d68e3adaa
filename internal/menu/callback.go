package menu

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// CallbackDataSeparator splits the action from its payload. Only the first one counts,
	// so payloads may contain it too ("new_user:yes:42").
	CallbackDataSeparator = ":"
	// CallbackDataLimitBytes is the Telegram limit on callback data.
	CallbackDataLimitBytes = 64
)

var (
	// ErrEmptyCallback indicates a button without an action or an empty callback.
	ErrEmptyCallback = errors.New("callback data is empty")
	// ErrCallbackTooLong indicates that the encoded button exceeds CallbackDataLimitBytes.
	ErrCallbackTooLong = errors.New("callback data is too long")
)

// EncodeCallback packs a button action and its payload into callback data.
func EncodeCallback(action, payload string) (string, error) {
	if action == "" {
		return "", ErrEmptyCallback
	}

	data := action
	if payload != "" {
		data += CallbackDataSeparator + payload
	}
	if len(data) > CallbackDataLimitBytes {
		return "", fmt.Errorf("%w: %d bytes for %q, limit %d", ErrCallbackTooLong, len(data), action, CallbackDataLimitBytes)
	}
	return data, nil
}

// DecodeCallback splits callback data into action and payload.
// The leading form feed telebot adds to its own callbacks is ignored.
func DecodeCallback(data string) (action, payload string, err error) {
	data = strings.TrimPrefix(data, "\f")
	if data == "" {
		return "", "", ErrEmptyCallback
	}

	action, payload, _ = strings.Cut(data, CallbackDataSeparator)
	return action, payload, nil
}
