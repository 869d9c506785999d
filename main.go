package main

import (
	"os"

	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/bayleafwalker/bindery-compose/internal/cli"
)

var setupLog = ctrl.Log.WithName("setup")

func main() {
	if err := cli.New().ExecuteContext(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "bindery-compose failed")
		os.Exit(1)
	}
}
