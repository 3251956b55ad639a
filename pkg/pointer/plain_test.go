package pointer

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/serum-errors/go-serum"
	"github.com/warpfork/go-testmark"

	"github.com/warptools/ledgerview/lvapi"
)

func TestPlainObjectFixtures(t *testing.T) {
	doc, err := testmark.ReadFile("testdata/resolve.md")
	if err != nil {
		t.Fatalf("fixture file parse failed?!: %s", err)
	}
	doc.BuildDirIndex()

	docs := map[string]string{}
	for _, ent := range doc.DirEnt.Children["documents"].ChildrenList {
		docs["fixture://"+ent.Name] = string(ent.Hunk.Body)
	}
	defaultSchema, err := lvapi.ParseFieldSchema(doc.DirEnt.Children["schema"].Hunk.Body)
	qt.Assert(t, err, qt.IsNil)

	for _, dir := range doc.DirEnt.Children["scenarios"].ChildrenList {
		t.Run(dir.Name, func(t *testing.T) {
			schema := defaultSchema
			if dir.Children["schema"] != nil {
				schema, err = lvapi.ParseFieldSchema(dir.Children["schema"].Hunk.Body)
				qt.Assert(t, err, qt.IsNil)
			}
			options := mustJSON(t, string(dir.Children["options"].Hunk.Body))
			expect := mustJSON(t, string(dir.Children["expect"].Hunk.Body))

			root, opts := plainOptions(t, options)
			backend := newDocBackend(docs)
			p, err := New(registryWith(t, "fixture", backend), root, schema)
			qt.Assert(t, err, qt.IsNil)

			actual, err := p.ToPlainObject(context.Background(), opts...)
			qt.Assert(t, err, qt.IsNil)
			assertNodeEquals(t, actual, expect)
		})
	}
}

// plainOptions reads the "options" hunk of a scenario:
// the root uri, and optionally "fields" and "depth".
func plainOptions(t *testing.T, n datamodel.Node) (string, []PlainOption) {
	t.Helper()
	rootNode, err := n.LookupByString("root")
	qt.Assert(t, err, qt.IsNil)
	root, err := rootNode.AsString()
	qt.Assert(t, err, qt.IsNil)

	var opts []PlainOption
	if fields, err := n.LookupByString("fields"); err == nil {
		var paths []string
		itr := fields.ListIterator()
		for !itr.Done() {
			_, v, err := itr.Next()
			qt.Assert(t, err, qt.IsNil)
			s, err := v.AsString()
			qt.Assert(t, err, qt.IsNil)
			paths = append(paths, s)
		}
		opts = append(opts, WithResolvedFields(paths...))
	}
	if depth, err := n.LookupByString("depth"); err == nil {
		d, err := depth.AsInt()
		qt.Assert(t, err, qt.IsNil)
		opts = append(opts, WithDepth(int(d)))
	}
	return root, opts
}

func TestPlainObjectOnlyDownloadsWhatItResolves(t *testing.T) {
	ctx := context.Background()
	backend := newDocBackend(map[string]string{
		"doc://hotel": `{"descriptionUri": "doc://desc", "images": {"lobby": "doc://lobby"}}`,
		"doc://desc":  `{"name": "Hotel Dream"}`,
		"doc://lobby": `{"caption": "Lobby"}`,
	})
	schema := lvapi.NewFieldSchema(
		lvapi.PointerField("descriptionUri", lvapi.FieldSchema{}),
		lvapi.NestedField("images"),
	)
	p, err := New(registryWith(t, "doc", backend), "doc://hotel", schema)
	qt.Assert(t, err, qt.IsNil)

	_, err = p.ToPlainObject(ctx, WithResolvedFields("descriptionUri"))
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, backend.Calls("doc://hotel"), qt.Equals, 1)
	qt.Check(t, backend.Calls("doc://desc"), qt.Equals, 1)
	qt.Check(t, backend.Calls("doc://lobby"), qt.Equals, 0)

	// Children live in the memoized contents, so rendering again only fetches what is new.
	_, err = p.ToPlainObject(ctx)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, backend.Calls("doc://hotel"), qt.Equals, 1)
	qt.Check(t, backend.Calls("doc://desc"), qt.Equals, 1)
	qt.Check(t, backend.Calls("doc://lobby"), qt.Equals, 1)
}

func TestPlainObjectChildFailure(t *testing.T) {
	backend := newDocBackend(map[string]string{
		"doc://hotel": `{"descriptionUri": "doc://missing"}`,
	})
	p, err := New(registryWith(t, "doc", backend), "doc://hotel", lvapi.NewFieldSchema(
		lvapi.PointerField("descriptionUri", lvapi.FieldSchema{}),
	))
	qt.Assert(t, err, qt.IsNil)

	_, err = p.ToPlainObject(context.Background())
	qt.Assert(t, serum.Code(err), qt.Equals, lvapi.ECodeStoragePointer)
	qt.Check(t, detail(err, "uri"), qt.Equals, "doc://missing")

	out, err := p.ToPlainObject(context.Background(), WithDepth(0))
	qt.Assert(t, err, qt.IsNil)
	contents, err := out.LookupByString("contents")
	qt.Assert(t, err, qt.IsNil)
	desc, err := contents.LookupByString("descriptionUri")
	qt.Assert(t, err, qt.IsNil)
	s, _ := desc.AsString()
	qt.Check(t, s, qt.Equals, "doc://missing")
}

func TestDescend(t *testing.T) {
	for _, tt := range []struct {
		testCase  string
		cfg       plainConfig
		name      string
		resolve   bool
		nextPaths []string
		nextSel   bool
		nextDepth int
	}{
		{"everything", plainConfig{depth: -1}, "a", true, nil, false, -1},
		{"depth used up", plainConfig{depth: 0}, "a", false, nil, false, 0},
		{"depth counts down", plainConfig{depth: 2}, "a", true, nil, false, 1},
		{"not selected", plainConfig{depth: -1, selected: true, paths: []string{"b"}}, "a", false, nil, true, -1},
		{"no paths", plainConfig{depth: -1, selected: true}, "a", false, nil, true, -1},
		{"bare name", plainConfig{depth: -1, selected: true, paths: []string{"a"}}, "a", true, nil, false, -1},
		{"suffix", plainConfig{depth: -1, selected: true, paths: []string{"a.b.c", "b"}}, "a", true, []string{"b.c"}, true, -1},
		{"bare name beats suffix", plainConfig{depth: -1, selected: true, paths: []string{"a.b", "a"}}, "a", true, nil, false, -1},
		{"prefix is not a match", plainConfig{depth: -1, selected: true, paths: []string{"ab"}}, "a", false, nil, true, -1},
	} {
		t.Run(tt.testCase, func(t *testing.T) {
			next, resolve := tt.cfg.descend(tt.name)
			qt.Assert(t, resolve, qt.Equals, tt.resolve)
			if !resolve {
				return
			}
			qt.Check(t, next.paths, qt.DeepEquals, tt.nextPaths)
			qt.Check(t, next.selected, qt.Equals, tt.nextSel)
			qt.Check(t, next.depth, qt.Equals, tt.nextDepth)
		})
	}
}
