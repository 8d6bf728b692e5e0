package webhook

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Normalize decodes a raw gateway payload, detects its platform and produces
// the common event record. ErrUnknownPlatform is terminal: the delivery is
// rejected without an audit row because nothing was extracted to record.
func Normalize(payload []byte) (*Event, error) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	platform := DetectPlatform(raw)
	event, err := normalizeVariant(platform, payload)
	if err != nil {
		return nil, err
	}
	if err := event.Validate(); err != nil {
		// Validation failures still return the event so the caller can
		// record an audit row with the extracted fields.
		return event, err
	}
	return event, nil
}

// normalizeVariant parses the payload into the platform's typed variant and
// runs the matching normalization function. One function per variant; adding
// a gateway means adding a case here plus its parser file.
func normalizeVariant(platform Platform, payload []byte) (*Event, error) {
	switch platform {
	case PlatformHotmart:
		p, err := parseHotmart(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return normalizeHotmart(p, payload), nil
	case PlatformKiwify:
		p, err := parseKiwify(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return normalizeKiwify(p, payload), nil
	case PlatformCakto:
		p, err := parseCakto(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return normalizeCakto(p, payload), nil
	default:
		return nil, ErrUnknownPlatform
	}
}

// flexString accepts JSON string or number values; gateways are inconsistent
// about how they encode product ids.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		*f = ""
		return nil
	}
	if s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	// Integer ids must not render in scientific notation.
	if i, err := n.Int64(); err == nil {
		*f = flexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string {
	return string(f)
}
