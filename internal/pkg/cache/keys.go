package cache

// Cache keys for the public storefront payloads.
const (
	StorefrontServicesKey = "storefront:services"
	serviceKeyPrefix      = "storefront:service:"
)

// ServiceKey returns the cache key for one published service payload.
func ServiceKey(slug string) string {
	return serviceKeyPrefix + slug
}
