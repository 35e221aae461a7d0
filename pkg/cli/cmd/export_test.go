package cmd

import "github.com/docker/docker/client"

// SetEngineFactory overrides the engine client factory and returns a restore
// function.
func SetEngineFactory(factory func() (client.APIClient, error)) func() {
	previous := engineFactory
	engineFactory = factory

	return func() { engineFactory = previous }
}
