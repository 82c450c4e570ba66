package registry

import (
	"github.com/dukex/scenarios/pkg/nodes/conditional"
	"github.com/dukex/scenarios/pkg/nodes/httprequest"
	"github.com/dukex/scenarios/pkg/nodes/log"
	"github.com/dukex/scenarios/pkg/nodes/merge"
	switchnode "github.com/dukex/scenarios/pkg/nodes/switch"
	"github.com/dukex/scenarios/pkg/nodes/transform"
	"github.com/dukex/scenarios/pkg/nodes/trigger"
	"github.com/dukex/scenarios/pkg/protocol"
)

// DefaultFactories returns the built-in node factories.
func DefaultFactories() []protocol.HandlerFactory {
	return []protocol.HandlerFactory{
		trigger.NewManualFactory(),
		trigger.NewWebhookFactory(),
		httprequest.NewFactory(nil),
		transform.NewFactory(),
		log.NewFactory(),
		conditional.NewFactory(),
		switchnode.NewFactory(),
		merge.NewFactory(),
	}
}

// RegisterDefaultNodes registers all built-in node factories with the registry.
func (r *Registry) RegisterDefaultNodes() error {
	for _, factory := range DefaultFactories() {
		if err := r.RegisterFactory(factory); err != nil {
			return err
		}
	}

	return nil
}
