package main

import (
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCommand()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "superuser"}, names)

	serve, _, err := root.Find([]string{"serve"})
	assert.NoError(t, err)
	assert.NotNil(t, serve.Flags().Lookup("migrate"))

	su, _, err := root.Find([]string{"superuser"})
	assert.NoError(t, err)
	assert.NotNil(t, su.Flags().Lookup("phone"))
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, log.DEBUG, logLevel("dev"))
	assert.Equal(t, log.INFO, logLevel("prod"))
}
