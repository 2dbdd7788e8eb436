// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package htmlentity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchOptionsDefaults(t *testing.T) {
	opts := DefaultFetchOptions()
	assert.False(t, opts.FlattenDirectoryStructure())
	assert.Equal(t, DefaultRemoteInterval, opts.RemoteInterval())
	assert.True(t, opts.FileFilter()("anything"))

	flat := opts.WithFlattenDirectoryStructure(true).WithRemoteInterval(0).WithFileFilter(Not(AcceptAll))
	assert.True(t, flat.FlattenDirectoryStructure())
	assert.Zero(t, flat.RemoteInterval())
	assert.False(t, flat.FileFilter()("anything"))

	// the original is untouched
	assert.False(t, opts.FlattenDirectoryStructure())
	assert.Equal(t, DefaultRemoteInterval, opts.RemoteInterval())
}

func TestLinkOptions(t *testing.T) {
	opts := FollowLink()
	assert.Empty(t, opts.Template())
	assert.Equal(t, NestCollection, opts.Nesting())
	assert.False(t, opts.IgnoreFollowingErrors())

	custom := opts.WithTemplate("http://x/?q={q}").WithNesting(NestExpand).IgnoringFollowingErrors(true)
	assert.Equal(t, "http://x/?q={q}", custom.Template())
	assert.Equal(t, NestExpand, custom.Nesting())
	assert.True(t, custom.IgnoreFollowingErrors())
	assert.Equal(t, NestCollection, opts.Nesting())
}

func TestParseNesting(t *testing.T) {
	for in, want := range map[string]Nesting{
		"":           NestCollection,
		"collection": NestCollection,
		"merge":      NestMerge,
		"flatten":    NestMerge,
		"expand":     NestExpand,
	} {
		got, err := ParseNesting(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseNesting("zip")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	for _, n := range []Nesting{NestCollection, NestMerge, NestExpand} {
		back, err := ParseNesting(n.String())
		require.NoError(t, err)
		assert.Equal(t, n, back)
	}
}

func TestLinkFollowerEntities(t *testing.T) {
	list := NewEntityList()
	lf, err := list.Entity("page").AddFollowLinkField("next", Match("a").ReadAttr("href"), FollowLink())
	require.NoError(t, err)
	assert.Equal(t, "next", lf.FieldEntity().Name())
	assert.Same(t, lf.FieldEntity(), lf.Entity("next"))

	require.NoError(t, lf.AddSilentField("marker", Match("hr")))
	require.NoError(t, lf.AddConstantField("origin", "linked"))
	require.NoError(t, lf.AddDownloadField("img", Match("img").ReadAttr("src"), Download()))
	assert.Equal(t, []string{"origin", "img"}, lf.FieldEntity().OutputFields())

	field := list.Entity("page").Fields()[0]
	assert.Same(t, lf, field.Follower())
	assert.Equal(t, Persistent, field.Kind)
	assert.False(t, field.IsDownload())

	// a follower with only silent and constant fields cannot produce rows
	bad := NewEntityList()
	lf2, err := bad.Entity("page").AddFollowLinkField("next", Match("a"), FollowLink())
	require.NoError(t, err)
	require.NoError(t, lf2.AddConstantField("c", "v"))
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)
}
