package main

import (
	"context"

	"github.com/tasmiapp/tasmi/core/subscription"
)

// syncPlans resets the plan catalog to the built-in defaults.
func (cli *commandLine) syncPlans() error {
	return cli.subRepo.ReplacePlans(context.Background(), subscription.DefaultPlans())
}
