package alerts

import "fmt"

// Record is the flat form of an alert used in YAML and JSON fixtures. Kind
// selects which of the optional fields apply.
type Record struct {
	Common `yaml:",inline"`

	Kind Kind      `json:"kind" yaml:"kind"`
	Type string    `json:"type,omitempty" yaml:"type,omitempty"`
	Name string    `json:"name,omitempty" yaml:"name,omitempty"`
	From *Country  `json:"from,omitempty" yaml:"from,omitempty"`
	To   *Country  `json:"to,omitempty" yaml:"to,omitempty"`
	Geom *Geometry `json:"geometry,omitempty" yaml:"geometry,omitempty"`
}

// Alert converts the record to its concrete alert type
func (r Record) Alert() (Alert, error) {
	switch r.Kind {
	case KindTollCollection:
		return TollCollection{Common: r.Common, Type: TollType(r.Type)}, nil
	case KindTunnelEntrance:
		return TunnelEntrance{Common: r.Common, Name: r.Name, Geometry: r.Geom}, nil
	case KindRestrictedArea:
		return RestrictedArea{Common: r.Common, Geometry: r.Geom}, nil
	case KindRestStop:
		return RestStop{Common: r.Common, Type: RestStopType(r.Type)}, nil
	case KindCountryBorderCrossing:
		return CountryBorderCrossing{Common: r.Common, From: r.From, To: r.To}, nil
	default:
		return nil, fmt.Errorf("unknown alert kind %q", r.Kind)
	}
}

// FromRecords converts fixture records, stopping at the first unknown kind
func FromRecords(records []Record) ([]Alert, error) {
	alerts := make([]Alert, 0, len(records))
	for i, r := range records {
		alert, err := r.Alert()
		if err != nil {
			return nil, fmt.Errorf("alert %d: %w", i, err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}
