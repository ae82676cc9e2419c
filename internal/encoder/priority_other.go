//go:build !unix

package encoder

import "errors"

func setPriority(int, int) error {
	return errors.New("process priority is not supported on this platform")
}
