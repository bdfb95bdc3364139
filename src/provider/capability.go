package provider

import "strings"

// Capability is a modality a model or engine supports.
type Capability uint8

const (
	CapText Capability = 1 << iota
	CapImage
	CapAudio
	CapStreaming
)

func (c Capability) String() string {
	switch c {
	case CapText:
		return "text"
	case CapImage:
		return "image"
	case CapAudio:
		return "audio"
	case CapStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// CapabilitySet is a bitmask of capabilities.
type CapabilitySet uint8

// Caps combines capabilities into a set.
func Caps(caps ...Capability) CapabilitySet {
	var s CapabilitySet
	for _, c := range caps {
		s |= CapabilitySet(c)
	}
	return s
}

// Has reports whether every given capability is in the set.
func (s CapabilitySet) Has(caps ...Capability) bool {
	for _, c := range caps {
		if s&CapabilitySet(c) == 0 {
			return false
		}
	}
	return true
}

func (s CapabilitySet) String() string {
	var parts []string
	for _, c := range []Capability{CapText, CapImage, CapAudio, CapStreaming} {
		if s.Has(c) {
			parts = append(parts, c.String())
		}
	}
	return strings.Join(parts, "|")
}
