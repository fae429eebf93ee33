package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_OrderAndOmissions(t *testing.T) {
	g := gadget{
		gadgetBase: gadgetBase{ID: 1},
		Label:      "spring",
		Weight:     2,
		Count:      3,
		Hash:       "h",
		Secret:     "s",
		OwnerID:    9,
		Owner: &workshop{
			gadgetBase: gadgetBase{ID: 9},
			Title:      "main",
			Name:       "north",
			Gadgets:    []gadget{{gadgetBase: gadgetBase{ID: 1}}},
		},
	}

	out, err := Marshal(g)
	require.NoError(t, err)
	assert.Equal(t,
		`{"id":1,"label":"spring","weight":2,"count":3,"ownerId":9,"owner":{"id":9,"name":"main","title":"north"}}`,
		string(out))
}

func TestMarshal_CutsCycles(t *testing.T) {
	g := &gadget{gadgetBase: gadgetBase{ID: 1}}
	g.Parts = []gadget{{gadgetBase: gadgetBase{ID: 1}}, {gadgetBase: gadgetBase{ID: 2}}}

	out, err := Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"id":1,"label":"","weight":0,"count":0,"ownerId":0,"parts":[{"id":2,"label":"","weight":0,"count":0,"ownerId":0}]}`,
		string(out))
}

func TestMarshal_Slices(t *testing.T) {
	out, err := Marshal([]workshop{{gadgetBase: gadgetBase{ID: 1}, Title: "a", Name: "b"}})
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1,"name":"a","title":"b"}]`, string(out))

	out, err = Marshal([]workshop{})
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(out))

	out, err = Marshal((*workshop)(nil))
	require.NoError(t, err)
	assert.Equal(t, `null`, string(out))
}
