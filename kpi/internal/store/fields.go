package store

// FieldMap names the document fields the KPI queries read. Defaults follow
// the Elastic Common Schema used by the beats indices.
type FieldMap struct {
	Timestamp      string `json:"timestamp" yaml:"timestamp" mapstructure:"timestamp"`
	HostName       string `json:"host_name" yaml:"host_name" mapstructure:"host_name"`
	SourceIP       string `json:"source_ip" yaml:"source_ip" mapstructure:"source_ip"`
	DestinationIP  string `json:"destination_ip" yaml:"destination_ip" mapstructure:"destination_ip"`
	EventCategory  string `json:"event_category" yaml:"event_category" mapstructure:"event_category"`
	EventOutcome   string `json:"event_outcome" yaml:"event_outcome" mapstructure:"event_outcome"`
	AuthCategory   string `json:"auth_category" yaml:"auth_category" mapstructure:"auth_category"`
	SuccessOutcome string `json:"success_outcome" yaml:"success_outcome" mapstructure:"success_outcome"`
	FailureOutcome string `json:"failure_outcome" yaml:"failure_outcome" mapstructure:"failure_outcome"`
}

// DefaultFieldMap returns the ECS field names.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		Timestamp:      "@timestamp",
		HostName:       "host.name",
		SourceIP:       "source.ip",
		DestinationIP:  "destination.ip",
		EventCategory:  "event.category",
		EventOutcome:   "event.outcome",
		AuthCategory:   "authentication",
		SuccessOutcome: "success",
		FailureOutcome: "failure",
	}
}

// WithDefaults fills every empty field from DefaultFieldMap.
func (f FieldMap) WithDefaults() FieldMap {
	d := DefaultFieldMap()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&f.Timestamp, d.Timestamp)
	fill(&f.HostName, d.HostName)
	fill(&f.SourceIP, d.SourceIP)
	fill(&f.DestinationIP, d.DestinationIP)
	fill(&f.EventCategory, d.EventCategory)
	fill(&f.EventOutcome, d.EventOutcome)
	fill(&f.AuthCategory, d.AuthCategory)
	fill(&f.SuccessOutcome, d.SuccessOutcome)
	fill(&f.FailureOutcome, d.FailureOutcome)
	return f
}

// AuthSuccess is the predicate for successful authentication events.
func (f FieldMap) AuthSuccess() []Term {
	return []Term{
		{Field: f.EventCategory, Value: f.AuthCategory},
		{Field: f.EventOutcome, Value: f.SuccessOutcome},
	}
}

// AuthFailure is the predicate for failed authentication events.
func (f FieldMap) AuthFailure() []Term {
	return []Term{
		{Field: f.EventCategory, Value: f.AuthCategory},
		{Field: f.EventOutcome, Value: f.FailureOutcome},
	}
}
