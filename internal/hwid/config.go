package hwid

import "time"

// DefaultCacheTTL bounds how long a computed fingerprint is served before the
// probes run again.
const DefaultCacheTTL = 5 * time.Minute

// Config selects which attributes contribute to the fingerprint and how the
// builder caches results. A Config is read-only once handed to a Builder;
// replace it with SetConfig to change behavior.
type Config struct {
	UseCPUID             bool
	UseMACAddress        bool
	UseVolumeSerial      bool
	UseMotherboardSerial bool

	CacheTTL        time.Duration
	EnableCaching   bool
	ThreadSafeCache bool
}

// DefaultConfig enables the CPU, MAC and volume attributes with a thread-safe
// five-minute cache. The motherboard serial is off by default: many boards
// report nothing or an OEM placeholder.
func DefaultConfig() Config {
	return Config{
		UseCPUID:        true,
		UseMACAddress:   true,
		UseVolumeSerial: true,
		CacheTTL:        DefaultCacheTTL,
		EnableCaching:   true,
		ThreadSafeCache: true,
	}
}

// enabledAttributes returns the enabled attributes in the fixed fingerprint
// order.
func (c Config) enabledAttributes() []Attribute {
	enabled := make([]Attribute, 0, len(attributeOrder))
	for _, attr := range attributeOrder {
		switch attr {
		case AttrCPUID:
			if c.UseCPUID {
				enabled = append(enabled, attr)
			}
		case AttrMACAddress:
			if c.UseMACAddress {
				enabled = append(enabled, attr)
			}
		case AttrVolumeSerial:
			if c.UseVolumeSerial {
				enabled = append(enabled, attr)
			}
		case AttrMotherboardSerial:
			if c.UseMotherboardSerial {
				enabled = append(enabled, attr)
			}
		}
	}
	return enabled
}
