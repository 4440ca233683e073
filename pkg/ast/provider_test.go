package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeDeclMethodLookup(t *testing.T) {
	typ := &TypeDecl{
		Name: "Project\\Service",
		Kind: KindClass,
		Methods: []*MethodDecl{
			{Name: "run", Visibility: Public},
			{Name: "helper", Visibility: Private},
		},
	}

	assert.NotNil(t, typ.Method("run"))
	assert.NotNil(t, typ.Method("RUN"), "method names are case-insensitive")
	assert.Nil(t, typ.Method("missing"))
}

func TestMethodDeclPredicates(t *testing.T) {
	assert.True(t, (&MethodDecl{Name: "__construct"}).IsMagic())
	assert.True(t, (&MethodDecl{Name: "__toString"}).IsMagic())
	assert.False(t, (&MethodDecl{Name: "construct"}).IsMagic())

	assert.True(t, (&MethodDecl{}).HasBody())
	assert.False(t, (&MethodDecl{Abstract: true}).HasBody())
}

func TestReceiverKind(t *testing.T) {
	tests := []struct {
		kind    ReceiverKind
		name    string
		current bool
	}{
		{ReceiverUnknown, "unknown", false},
		{ReceiverThis, "this", true},
		{ReceiverSelf, "self", true},
		{ReceiverStatic, "static", true},
		{ReceiverParent, "parent", true},
		{ReceiverClass, "class", false},
		{ReceiverVariable, "variable", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.kind.String())
			assert.Equal(t, tt.current, tt.kind.IsCurrentObject())
		})
	}
}
