// Package sysignals converts OS quit signals into errors, so that they can be handled along with
// any other fatal error of the application.
package sysignals

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/naughtygopher/errors"
)

var ErrSigQuit = errors.New("received quit signal")

var quitSignals = []os.Signal{
	os.Interrupt,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// NotifyErrorOnQuit blocks till one of the quit signals is received, and then pushes ErrSigQuit
// (wrapped with the signal name) to errs.
func NotifyErrorOnQuit(errs chan<- error) {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, quitSignals...)
	defer signal.Stop(interrupt)

	notifyOn(interrupt, errs)
}

func notifyOn(interrupt <-chan os.Signal, errs chan<- error) {
	sig := <-interrupt
	errs <- errors.Wrap(ErrSigQuit, sig.String())
}
