// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func purchaseModel() *Model {
	shipping := &Protocol{
		Name:        "Shipping",
		Description: "ship an item",
		Roles:       []Role{{Name: "S"}, {Name: "C"}},
		Parameters: []Parameter{
			{Name: "item", Type: TypeString},
			{Name: "tracking", Type: TypeString},
		},
		Nodes: []Node{InteractionNode(&Interaction{
			From: "S", To: "C", Action: "ship",
			Flows: []ParameterFlow{{Parameter: "item", Direction: In}, {Parameter: "tracking", Direction: Out}},
		})},
	}
	purchase := &Protocol{
		Name:  "Purchase",
		Roles: []Role{{Name: "Buyer"}, {Name: "Seller"}},
		Parameters: []Parameter{
			{Name: "item", Type: TypeString},
			{Name: "price", Type: TypeFloat},
			{Name: "tracking", Type: TypeString},
		},
		Nodes: []Node{
			InteractionNode(&Interaction{
				From: "Buyer", To: "Seller", Action: "order",
				Flows: []ParameterFlow{{Parameter: "item", Direction: Out}},
			}),
			InteractionNode(&Interaction{
				From: "Seller", To: "Buyer", Action: "quote",
				Flows: []ParameterFlow{{Parameter: "item", Direction: In}, {Parameter: "price", Direction: Out}},
			}),
			CompositionNode(&Composition{
				Protocol: "Shipping",
				Roles:    []string{"Seller", "Buyer"},
				Flows:    []ParameterFlow{{Parameter: "item", Direction: In}, {Parameter: "tracking", Direction: Out}},
			}),
		},
	}
	return NewModel([]*Protocol{purchase, shipping})
}

func TestModelLookup(t *testing.T) {
	m := purchaseModel()

	assert.Equal(t, []string{"Purchase", "Shipping"}, m.Names())

	p, ok := m.Protocol("Shipping")
	require.True(t, ok)
	assert.Equal(t, "ship an item", p.Description)

	_, ok = m.Protocol("Missing")
	assert.False(t, ok)

	var nilModel *Model
	_, ok = nilModel.Protocol("Purchase")
	assert.False(t, ok)
}

func TestModelFirstDeclarationWins(t *testing.T) {
	m := NewModel([]*Protocol{
		{Name: "P", Description: "first"},
		{Name: "P", Description: "second"},
	})
	p, ok := m.Protocol("P")
	require.True(t, ok)
	assert.Equal(t, "first", p.Description)
}

func TestModelSelect(t *testing.T) {
	m := purchaseModel()

	tests := []struct {
		name     string
		arg      string
		expected string
		wantErr  string
	}{
		{name: "first by default", arg: "", expected: "Purchase"},
		{name: "by name", arg: "Shipping", expected: "Shipping"},
		{name: "unknown", arg: "Refund", wantErr: `protocol "Refund" not found`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := m.Select(tt.arg)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p.Name)
		})
	}

	_, err := NewModel(nil).Select("")
	require.EqualError(t, err, "source declares no protocol")
}

func TestModelSubsetKeepsDeclarationOrder(t *testing.T) {
	m := purchaseModel()

	sub := m.Subset([]string{"Shipping", "Purchase"})
	assert.Equal(t, []string{"Purchase", "Shipping"}, sub.Names())

	sub = m.Subset([]string{"Shipping", "Unknown"})
	assert.Equal(t, []string{"Shipping"}, sub.Names())
	_, ok := sub.Protocol("Purchase")
	assert.False(t, ok)

	assert.Empty(t, m.Subset(nil).Protocols)
}

func TestEnacts(t *testing.T) {
	m := purchaseModel()
	purchase, _ := m.Protocol("Purchase")

	assert.Equal(t, []string{"Shipping"}, purchase.Enacts())
	assert.Equal(t, []string{"Purchase"}, m.EnactedBy("Shipping"))
	assert.Empty(t, m.EnactedBy("Purchase"))
}

func TestProducersAndConsumers(t *testing.T) {
	purchase, _ := purchaseModel().Protocol("Purchase")

	assert.Equal(t, []int{0}, purchase.Producers("item"))
	assert.Equal(t, []int{1, 2}, purchase.Consumers("item"))
	assert.Equal(t, []int{2}, purchase.Producers("tracking"))
	assert.Empty(t, purchase.Consumers("tracking"))

	quote := purchase.Nodes[1]
	assert.Equal(t, "quote", quote.Name())
	assert.Equal(t, "Seller", quote.Source())
	assert.Equal(t, []string{"item"}, quote.Inputs())
	assert.Equal(t, []string{"price"}, quote.Outputs())
	assert.True(t, quote.Uses("price", Out))
	assert.False(t, quote.Uses("price", In))

	enact := purchase.Nodes[2]
	assert.Equal(t, "Shipping", enact.Name())
	assert.Equal(t, "Seller", enact.Source())
}

func TestJSONRoundTripRebuildsIndex(t *testing.T) {
	m := purchaseModel()

	data, err := MarshalJSON(m, true)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind": "composition"`)

	decoded, err := ParseJSON(data)
	require.NoError(t, err)
	assert.Equal(t, m.Names(), decoded.Names())

	shipping, ok := decoded.Protocol("Shipping")
	require.True(t, ok)
	assert.Equal(t, "tracking", shipping.Nodes[0].Interaction.Flows[1].Parameter)
	assert.Equal(t, Out, shipping.Nodes[0].Interaction.Flows[1].Direction)

	_, err = ParseJSON(nil)
	require.Error(t, err)
	_, err = MarshalJSON(nil, false)
	require.Error(t, err)
}

func TestYAMLRoundTrip(t *testing.T) {
	m := purchaseModel()

	data, err := MarshalYAML(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: Purchase")

	decoded, err := ParseYAML(data)
	require.NoError(t, err)
	purchase, ok := decoded.Protocol("Purchase")
	require.True(t, ok)
	require.Len(t, purchase.Nodes, 3)
	assert.Equal(t, []string{"Seller", "Buyer"}, purchase.Nodes[2].Composition.Roles)
	assert.Equal(t, TypeFloat, purchase.Parameters[1].Type)
}

func TestParseBasicType(t *testing.T) {
	for _, bt := range BasicTypes {
		got, ok := ParseBasicType(string(bt))
		assert.True(t, ok, bt)
		assert.Equal(t, bt, got)
	}
	_, ok := ParseBasicType("Date")
	assert.False(t, ok)
}
