package tracing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsUnknownKeys(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/coffees/:id"),
		attribute.String("authorization", "secret"),
		attribute.String("coffee.id", "42"),
	)
	assert.Len(t, attrs, 2)
	for _, attr := range attrs {
		assert.NotEqual(t, attribute.Key("authorization"), attr.Key)
	}
}

func TestSafeErrorFlattensChain(t *testing.T) {
	base := errors.New("db down")
	wrapped := fmt.Errorf("recommend: %w", base)

	safe := SafeError(wrapped)
	assert.Equal(t, "recommend: db down", safe.Error())
	assert.False(t, errors.Is(safe, base))
	assert.Nil(t, SafeError(nil))
}
