package sysignals

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNotifyOn(t *testing.T) {
	requirer := require.New(t)
	interrupt := make(chan os.Signal, 1)
	errs := make(chan error, 1)

	go notifyOn(interrupt, errs)
	interrupt <- syscall.SIGTERM

	select {
	case err := <-errs:
		requirer.ErrorIs(err, ErrSigQuit)
		requirer.Contains(err.Error(), syscall.SIGTERM.String())
	case <-time.After(time.Second * 2):
		t.Fatal("quit signal was not converted to an error")
	}
}
