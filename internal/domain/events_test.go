package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChainTopic(t *testing.T) {
	assert.Equal(t, "chain:12345", ChainTopic("12345"))
}

func TestAPITopic_IsStable(t *testing.T) {
	assert.Equal(t, "api", APITopic)
}
