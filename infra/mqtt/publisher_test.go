package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigSetDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, "bankoptimize", c.ClientID)
	assert.Equal(t, "bankoptimize/runs", c.Topic)
	assert.Equal(t, 5000, c.TimeoutMS)

	c = Config{ClientID: "custom", Topic: "t", TimeoutMS: 100}
	c.SetDefaults()
	assert.Equal(t, "custom", c.ClientID)
	assert.Equal(t, "t", c.Topic)
	assert.Equal(t, 100, c.TimeoutMS)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.Error(t, Config{Enabled: true}.Validate())
	assert.NoError(t, Config{Enabled: true, Broker: "tcp://localhost:1883"}.Validate())
}