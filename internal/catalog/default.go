package catalog

const (
	// DefaultViewName is the built-in view fetched by get_features.
	DefaultViewName = "demo_web_event_features"

	EventPageView   = "iglu:com.snowplowanalytics.snowplow/page_view/jsonschema/1-0-0"
	EventPagePing   = "iglu:com.snowplowanalytics.snowplow/page_ping/jsonschema/1-0-0"
	EventSubmitForm = "iglu:com.snowplowanalytics.snowplow/submit_form/jsonschema/1-0-0"
	EventMediaReady = "iglu:com.snowplowanalytics.snowplow.media/ready_event/jsonschema/1-0-0"
	EventLinkClick  = "iglu:com.snowplowanalytics.snowplow/link_click/jsonschema/1-0-1"
)

// Default returns the built-in web session feature view.
// A fresh value is returned on every call so callers cannot mutate a shared copy.
func Default() *FeatureView {
	return &FeatureView{
		Name:     DefaultViewName,
		Version:  1,
		Entities: []Entity{SessionEntity},
		Features: []Feature{
			{
				Name:        "num_page_views",
				Description: "Number of pages viewed in the session.",
				Scope:       ScopeSession,
				DType:       DTypeInt32,
				Events:      []string{EventPageView},
				Type:        AggregationCounter,
			},
			{
				Name:        "performed_events",
				Description: "Distinct event names the visitor triggered in the session.",
				Scope:       ScopeSession,
				DType:       DTypeStringList,
				Events: []string{
					EventPageView,
					EventSubmitForm,
					EventMediaReady,
					EventLinkClick,
				},
				Type:     AggregationUniqueList,
				Property: "event_name",
			},
			{
				Name:        "engaged_10s_periods",
				Description: "Number of 10 second periods the visitor was actively engaged with a page.",
				Scope:       ScopeSession,
				DType:       DTypeInt32,
				Events:      []string{EventPagePing},
				Type:        AggregationCounter,
			},
			{
				Name:        "visited_pages",
				Description: "Distinct page titles viewed in the session.",
				Scope:       ScopeSession,
				DType:       DTypeStringList,
				Events:      []string{EventPageView},
				Type:        AggregationUniqueList,
				Property:    "page_title",
			},
		},
	}
}
