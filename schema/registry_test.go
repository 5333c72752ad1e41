package schema_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/context-protocol/sdk"
	"github.com/context-protocol/sdk/event"
	"github.com/context-protocol/sdk/identity"
	"github.com/context-protocol/sdk/property"
	"github.com/context-protocol/sdk/schema"
)

var (
	regIdent = identity.Identity("registry-ident")
	admin    = identity.Identity("admin-ident")
	stranger = identity.Identity("stranger-ident")
)

func newRegistry(t *testing.T) (*schema.Registry, *event.Recorder) {
	t.Helper()

	rec := event.NewRecorder()
	return schema.NewRegistry(regIdent, admin, schema.WithEventSink(rec)), rec
}

func TestRegisterNodeType(t *testing.T) {
	ctx := context.Background()
	reg, rec := newRegistry(t)

	id, err := reg.RegisterNodeType(ctx, "Organization", admin)
	require.NoError(t, err)
	assert.Equal(t, identity.TypeID(regIdent, "Organization"), id)

	def, err := reg.TypeByID(id)
	require.NoError(t, err)
	assert.Equal(t, "Organization", def.Name)
	assert.Equal(t, schema.KindNodeType, def.Kind)

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, event.EntityAdded{TypeID: id, Name: "Organization"}, events[0])
}

func TestRegisterNodeTypeDuplicate(t *testing.T) {
	ctx := context.Background()
	reg, rec := newRegistry(t)

	first, err := reg.RegisterNodeType(ctx, "Organization", admin)
	require.NoError(t, err)

	_, err = reg.RegisterNodeType(ctx, "Organization", admin)
	require.ErrorIs(t, err, sdk.ErrAlreadyExists)

	// The rejected call computed the same structural id.
	assert.Equal(t, first, identity.TypeID(regIdent, "Organization"))

	// No event for the failed registration.
	assert.Len(t, rec.Events(), 1)
}

func TestRegisterNodeTypeValidation(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t)

	_, err := reg.RegisterNodeType(ctx, "", admin)
	require.ErrorIs(t, err, sdk.ErrInvalidArgument)

	_, err = reg.RegisterNodeType(ctx, "Organization", stranger)
	require.ErrorIs(t, err, schema.ErrNotAdministrator)
	require.ErrorIs(t, err, sdk.ErrUnauthorized)
}

func TestRegisterEdgeType(t *testing.T) {
	ctx := context.Background()
	reg, rec := newRegistry(t)

	org, err := reg.RegisterNodeType(ctx, "Organization", admin)
	require.NoError(t, err)
	persona, err := reg.RegisterNodeType(ctx, "Persona", admin)
	require.NoError(t, err)

	worksAt, err := reg.RegisterEdgeType(ctx, "WORKS_AT", org, persona, admin)
	require.NoError(t, err)

	assert.True(t, reg.IsValidEdge(worksAt, org, persona))
	assert.False(t, reg.IsValidEdge(worksAt, persona, org), "paths are directional")

	events := rec.Events()
	require.Len(t, events, 3)
	assert.Equal(t, event.EntityAdded{
		TypeID:       worksAt,
		Name:         "WORKS_AT",
		SourceTypeID: org,
		TargetTypeID: persona,
	}, events[2])
}

func TestRegisterEdgeTypeInvalidEndpoints(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t)

	org, err := reg.RegisterNodeType(ctx, "Organization", admin)
	require.NoError(t, err)

	unknown := identity.DeriveID([]byte("never registered"))

	_, err = reg.RegisterEdgeType(ctx, "WORKS_AT", unknown, org, admin)
	require.ErrorIs(t, err, schema.ErrInvalidTypePair)

	_, err = reg.RegisterEdgeType(ctx, "WORKS_AT", org, unknown, admin)
	require.ErrorIs(t, err, schema.ErrInvalidTypePair)
}

func TestRegisterEdgeTypeAppendsPaths(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t)

	org, _ := reg.RegisterNodeType(ctx, "Organization", admin)
	persona, _ := reg.RegisterNodeType(ctx, "Persona", admin)
	project, _ := reg.RegisterNodeType(ctx, "Project", admin)

	first, err := reg.RegisterEdgeType(ctx, "OWNS", org, persona, admin)
	require.NoError(t, err)

	// Same name, different endpoints: appended, same id.
	second, err := reg.RegisterEdgeType(ctx, "OWNS", org, project, admin)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Same name, same endpoints: duplicate.
	_, err = reg.RegisterEdgeType(ctx, "OWNS", org, persona, admin)
	require.ErrorIs(t, err, sdk.ErrAlreadyExists)

	paths, err := reg.EdgePaths(first)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.True(t, reg.IsValidEdge(first, org, persona))
	assert.True(t, reg.IsValidEdge(first, org, project))
}

func TestRegisterEdgeTypeNameTakenByNodeType(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t)

	org, _ := reg.RegisterNodeType(ctx, "Organization", admin)
	persona, _ := reg.RegisterNodeType(ctx, "Persona", admin)

	_, err := reg.RegisterEdgeType(ctx, "Organization", org, persona, admin)
	require.ErrorIs(t, err, sdk.ErrAlreadyExists)
}

func TestEdgeBetweenEdgeTypes(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t)

	org, _ := reg.RegisterNodeType(ctx, "Organization", admin)
	persona, _ := reg.RegisterNodeType(ctx, "Persona", admin)
	worksAt, _ := reg.RegisterEdgeType(ctx, "WORKS_AT", org, persona, admin)

	// Edge types are valid endpoints too, symmetric to node types.
	meta, err := reg.RegisterEdgeType(ctx, "ANNOTATES", worksAt, worksAt, admin)
	require.NoError(t, err)
	assert.True(t, reg.IsValidEdge(meta, worksAt, worksAt))
}

func TestSetEdgePathActive(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t)

	org, _ := reg.RegisterNodeType(ctx, "Organization", admin)
	persona, _ := reg.RegisterNodeType(ctx, "Persona", admin)
	worksAt, _ := reg.RegisterEdgeType(ctx, "WORKS_AT", org, persona, admin)

	require.NoError(t, reg.SetEdgePathActive(ctx, worksAt, org, persona, false, admin))
	assert.False(t, reg.IsValidEdge(worksAt, org, persona))

	require.NoError(t, reg.SetEdgePathActive(ctx, worksAt, org, persona, true, admin))
	assert.True(t, reg.IsValidEdge(worksAt, org, persona))

	err := reg.SetEdgePathActive(ctx, worksAt, persona, org, false, admin)
	require.ErrorIs(t, err, sdk.ErrNotFound)

	err = reg.SetEdgePathActive(ctx, worksAt, org, persona, false, stranger)
	require.ErrorIs(t, err, sdk.ErrUnauthorized)
}

func TestRegisterProperty(t *testing.T) {
	ctx := context.Background()
	reg, rec := newRegistry(t)

	org, _ := reg.RegisterNodeType(ctx, "Organization", admin)

	nameID, err := reg.RegisterProperty(ctx, org, "Name", property.TypeString, admin)
	require.NoError(t, err)
	assert.Equal(t, identity.PropertyID(regIdent, org, "Name"), nameID)

	foundedID, err := reg.RegisterProperty(ctx, org, "Founded", property.TypeDate, admin)
	require.NoError(t, err)

	props, err := reg.TypeProperties(org)
	require.NoError(t, err)
	require.Len(t, props, 2)

	// Declaration order preserved.
	assert.Equal(t, "Name", props[0].Name)
	assert.Equal(t, "Founded", props[1].Name)
	assert.True(t, props[0].Active)
	assert.Equal(t, foundedID, props[1].ID)

	events := rec.Events()
	require.Len(t, events, 3)
	assert.Equal(t, event.PropertyAdded{
		PropertyID:   nameID,
		Name:         "Name",
		Type:         property.TypeString,
		EntityTypeID: org,
	}, events[1])
}

func TestRegisterPropertyValidation(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t)

	org, _ := reg.RegisterNodeType(ctx, "Organization", admin)

	_, err := reg.RegisterProperty(ctx, identity.DeriveID([]byte("nope")), "Name", property.TypeString, admin)
	require.ErrorIs(t, err, sdk.ErrNotFound)

	_, err = reg.RegisterProperty(ctx, org, "Name", property.TypeInvalid, admin)
	require.ErrorIs(t, err, sdk.ErrInvalidArgument)

	_, err = reg.RegisterProperty(ctx, org, "Name", property.TypeString, stranger)
	require.ErrorIs(t, err, sdk.ErrUnauthorized)

	_, err = reg.RegisterProperty(ctx, org, "Name", property.TypeString, admin)
	require.NoError(t, err)
	_, err = reg.RegisterProperty(ctx, org, "Name", property.TypeString, admin)
	require.ErrorIs(t, err, sdk.ErrAlreadyExists)
}

func TestSetPropertyActive(t *testing.T) {
	ctx := context.Background()
	reg, rec := newRegistry(t)

	org, _ := reg.RegisterNodeType(ctx, "Organization", admin)
	nameID, _ := reg.RegisterProperty(ctx, org, "Name", property.TypeString, admin)

	require.NoError(t, reg.SetPropertyActive(ctx, org, nameID, false, admin))

	def, err := reg.PropertyByName(org, "Name")
	require.NoError(t, err)
	assert.False(t, def.Active)

	err = reg.SetPropertyActive(ctx, org, identity.DeriveID([]byte("nope")), false, admin)
	require.ErrorIs(t, err, schema.ErrPropertyNotRegistered)

	events := rec.Events()
	assert.Equal(t, event.PropertyActivityChanged{
		PropertyID:   nameID,
		EntityTypeID: org,
		Active:       false,
	}, events[len(events)-1])
}

func TestListTypes(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t)

	org, _ := reg.RegisterNodeType(ctx, "Organization", admin)
	persona, _ := reg.RegisterNodeType(ctx, "Persona", admin)
	worksAt, _ := reg.RegisterEdgeType(ctx, "WORKS_AT", org, persona, admin)

	nodeTypes := reg.NodeTypes()
	require.Len(t, nodeTypes, 2)
	assert.Equal(t, "Organization", nodeTypes[0].Name)
	assert.Equal(t, "Persona", nodeTypes[1].Name)

	edgeTypes := reg.EdgeTypes()
	require.Len(t, edgeTypes, 1)
	assert.Equal(t, worksAt, edgeTypes[0].ID)
}

func TestTypeByName(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t)

	org, _ := reg.RegisterNodeType(ctx, "Organization", admin)

	def, err := reg.TypeByName("Organization")
	require.NoError(t, err)
	assert.Equal(t, org, def.ID)

	_, err = reg.TypeByName("Nonexistent")
	require.ErrorIs(t, err, schema.ErrTypeNotRegistered)
}
