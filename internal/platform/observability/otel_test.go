package observability

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func attributeValue(attrs []attribute.KeyValue, key attribute.Key) (string, bool) {
	for _, attr := range attrs {
		if attr.Key == key {
			return attr.Value.AsString(), true
		}
	}
	return "", false
}

func TestBridgeAttributes(t *testing.T) {
	t.Setenv("ENVIRONMENT", "staging")
	t.Setenv("SHOPIFY_SHOP_DOMAIN", "example.myshopify.com")

	attrs := bridgeAttributes("order-bridge-worker")

	name, ok := attributeValue(attrs, "service.name")
	require.True(t, ok)
	require.Equal(t, "order-bridge-worker", name)

	namespace, ok := attributeValue(attrs, "service.namespace")
	require.True(t, ok)
	require.Equal(t, "order-bridge", namespace)

	env, ok := attributeValue(attrs, "deployment.environment")
	require.True(t, ok)
	require.Equal(t, "staging", env)

	shop, ok := attributeValue(attrs, "shopify.shop_domain")
	require.True(t, ok)
	require.Equal(t, "example.myshopify.com", shop)
}

func TestBridgeAttributes_NoShopConfigured(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("SHOPIFY_SHOP_DOMAIN", "")

	attrs := bridgeAttributes("order-bridge-api")

	env, ok := attributeValue(attrs, "deployment.environment")
	require.True(t, ok)
	require.Equal(t, "local", env)

	_, ok = attributeValue(attrs, "shopify.shop_domain")
	require.False(t, ok)
}
