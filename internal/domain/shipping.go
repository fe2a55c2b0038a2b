package domain

// ShippingOption is one of the static delivery choices offered at checkout.
// Costs are in rupiah.
type ShippingOption struct {
	Name string `bson:"name" json:"name"`
	Cost int64  `bson:"cost" json:"cost"`
}

// ShippingSelection is the option chosen for a particular order, snapshotted
// onto the transaction document.
type ShippingSelection struct {
	Option string `bson:"option" json:"option"`
	Name   string `bson:"name" json:"name"`
	Cost   int64  `bson:"cost" json:"cost"`
}

var shippingOptions = map[string]ShippingOption{
	"cod":     {Name: "Kurir Toko / COD (Area Lokal, 1-2 jam)", Cost: 8000},
	"instant": {Name: "Pengiriman Instant / Same Day (1-2 jam)", Cost: 20000},
	"pickup":  {Name: "Ambil di Toko", Cost: 0},
}

// ShippingFor resolves a shipping option key. The option set is fixed
// configuration, not persisted per user.
func ShippingFor(key string) (ShippingOption, bool) {
	opt, ok := shippingOptions[key]
	return opt, ok
}

// ResolveShipping accepts either an option key or the display label the
// storefront client submits verbatim, and returns the canonical key with its
// option.
func ResolveShipping(keyOrLabel string) (string, ShippingOption, bool) {
	if opt, ok := shippingOptions[keyOrLabel]; ok {
		return keyOrLabel, opt, true
	}
	for key, opt := range shippingOptions {
		if opt.Name == keyOrLabel {
			return key, opt, true
		}
	}
	return "", ShippingOption{}, false
}

// ShippingOptions returns a copy of the full option table, keyed by option id.
func ShippingOptions() map[string]ShippingOption {
	out := make(map[string]ShippingOption, len(shippingOptions))
	for k, v := range shippingOptions {
		out[k] = v
	}
	return out
}
