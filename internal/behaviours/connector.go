package behaviours

import (
	"github.com/reactive-graph/reactive-graph-sub007/internal/behaviour"
	"github.com/reactive-graph/reactive-graph-sub007/internal/ir"
	"github.com/reactive-graph/reactive-graph-sub007/internal/reactive"
)

// ConnectorFactory returns a connector behaviour of type ty. A connected
// relation copies every value of its outbound entity's property named by
// outbound_property_name into its inbound entity's property named by
// inbound_property_name.
func ConnectorFactory(ty ir.BehaviourTypeID) *behaviour.FuncFactory[ir.RelationInstanceID, *reactive.Relation] {
	return behaviour.NewFactory(ty, behaviour.Funcs[ir.RelationInstanceID, *reactive.Relation]{
		Validator: func(r *reactive.Relation) behaviour.Validator {
			return behaviour.ValidatorFunc(func() error {
				_, _, err := socketNames(r)
				return err
			})
		},
		Connect: func(b *relationBehaviour) error {
			r := b.Instance()
			outName, inName, err := socketNames(r)
			if err != nil {
				return err
			}
			b.Observers().PropagateFrom(r.Outbound(), outName, r.Inbound(), inName)
			return nil
		},
	})
}

// socketNames reads and checks the connector's property names against both
// endpoints.
func socketNames(r *reactive.Relation) (string, string, error) {
	outName, err := stringProperty(r, PropertyOutboundPropertyName)
	if err != nil {
		return "", "", err
	}
	inName, err := stringProperty(r, PropertyInboundPropertyName)
	if err != nil {
		return "", "", err
	}
	if !r.Outbound().HasProperty(outName) {
		return "", "", behaviour.OutboundPropertyMissing(outName)
	}
	if !r.Inbound().HasProperty(inName) {
		return "", "", behaviour.InboundPropertyMissing(inName)
	}
	return outName, inName, nil
}

func stringProperty(c reactive.PropertyContainer, name string) (string, error) {
	if err := behaviour.ValidatePropertyType(c, name, ir.DataTypeString); err != nil {
		return "", err
	}
	v, _ := c.Get(name)
	s, _ := ir.AsString(v)
	return s, nil
}
