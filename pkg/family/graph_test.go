package family

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/errors"
)

func quiet() Option { return WithLogger(log.New(io.Discard)) }

func mustAdd(t *testing.T, g *Graph, id, name string) string {
	t.Helper()
	got, err := g.AddMember(Member{ID: id, DisplayName: name})
	if err != nil {
		t.Fatalf("AddMember(%q): %v", id, err)
	}
	return got
}

func TestAddMember(t *testing.T) {
	tests := []struct {
		name     string
		member   Member
		wantCode errors.Code
	}{
		{"simple", Member{ID: "a", DisplayName: "John"}, ""},
		{"generated id", Member{DisplayName: "Mary"}, ""},
		{"empty name", Member{ID: "b", DisplayName: ""}, errors.ErrCodeInvalidMember},
		{"blank name", Member{ID: "b", DisplayName: "  \t"}, errors.ErrCodeInvalidMember},
		{"negative stories", Member{ID: "b", DisplayName: "Bob", StoryCount: -2}, errors.ErrCodeInvalidMember},
		{"bad id", Member{ID: " b", DisplayName: "Bob"}, errors.ErrCodeInvalidMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(quiet())
			id, err := g.AddMember(tt.member)
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Fatalf("AddMember() error = %v, want code %s", err, tt.wantCode)
				}
				if g.MemberCount() != 0 {
					t.Errorf("MemberCount() = %d after failed add, want 0", g.MemberCount())
				}
				return
			}
			if err != nil {
				t.Fatalf("AddMember() unexpected error: %v", err)
			}
			if id == "" {
				t.Fatal("AddMember() returned empty id")
			}
			if tt.member.ID != "" && id != tt.member.ID {
				t.Errorf("id = %q, want %q", id, tt.member.ID)
			}
			if !g.HasMember(id) {
				t.Errorf("HasMember(%q) = false", id)
			}
		})
	}
}

func TestAddMemberResetsDerived(t *testing.T) {
	g := New(quiet())
	id, err := g.AddMember(Member{
		DisplayName:       "  Ann  ",
		Position:          Position{X: 10, Y: 20},
		Generation:        4,
		IsInDirectLineage: true,
		StoryCount:        3,
		HasNewStories:     true,
	})
	if err != nil {
		t.Fatal(err)
	}

	m, _ := g.Member(id)
	if m.DisplayName != "Ann" {
		t.Errorf("DisplayName = %q, want trimmed", m.DisplayName)
	}
	if m.Position != (Position{}) || m.Generation != 0 || m.IsInDirectLineage {
		t.Errorf("derived fields not reset: %+v", m)
	}
	if m.StoryCount != 3 || !m.HasNewStories {
		t.Errorf("story annotations lost: %+v", m)
	}
}

func TestAddMemberDuplicate(t *testing.T) {
	g := New(quiet())
	mustAdd(t, g, "a", "John")
	_, err := g.AddMember(Member{ID: "a", DisplayName: "Other"})
	if !errors.Is(err, errors.ErrCodeDuplicateMember) {
		t.Fatalf("error = %v, want DUPLICATE_MEMBER", err)
	}
	m, _ := g.Member("a")
	if m.DisplayName != "John" {
		t.Errorf("existing member overwritten: %q", m.DisplayName)
	}
}

func TestConnect(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		target   string
		kind     Kind
		wantCode errors.Code
	}{
		{"parent child", "a", "b", KindParentChild, ""},
		{"spouse", "a", "c", KindSpouse, ""},
		{"unknown kind", "a", "b", Kind("cousin"), errors.ErrCodeInvalidRelationship},
		{"self reference", "a", "a", KindSpouse, errors.ErrCodeSelfReference},
		{"missing source", "x", "a", KindParentChild, errors.ErrCodeUnknownMember},
		{"missing target", "a", "x", KindParentChild, errors.ErrCodeUnknownMember},
		{"kind checked before members", "x", "y", Kind(""), errors.ErrCodeInvalidRelationship},
		{"self checked before members", "x", "x", KindParentChild, errors.ErrCodeSelfReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(quiet())
			mustAdd(t, g, "a", "A")
			mustAdd(t, g, "b", "B")
			mustAdd(t, g, "c", "C")

			id, err := g.Connect(tt.source, tt.target, tt.kind)
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Fatalf("Connect() error = %v, want %s", err, tt.wantCode)
				}
				if g.RelationshipCount() != 0 {
					t.Errorf("RelationshipCount() = %d after failure", g.RelationshipCount())
				}
				return
			}
			if err != nil {
				t.Fatalf("Connect() unexpected error: %v", err)
			}
			if want := RelationshipID(tt.source, tt.target, tt.kind); id != want {
				t.Errorf("id = %q, want %q", id, want)
			}
		})
	}
}

func TestConnectDuplicates(t *testing.T) {
	g := New(quiet())
	mustAdd(t, g, "a", "A")
	mustAdd(t, g, "b", "B")

	if _, err := g.Connect("a", "b", KindParentChild); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Connect("a", "b", KindParentChild); !errors.Is(err, errors.ErrCodeDuplicateRelationship) {
		t.Errorf("repeat parent_child: error = %v", err)
	}
	// Reversed parent_child is a different directed pair.
	if _, err := g.Connect("b", "a", KindParentChild); err != nil {
		t.Errorf("reversed parent_child: %v", err)
	}

	if _, err := g.Connect("b", "a", KindSpouse); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Connect("a", "b", KindSpouse); !errors.Is(err, errors.ErrCodeDuplicateRelationship) {
		t.Errorf("reciprocal spouse: error = %v", err)
	}

	if g.RelationshipCount() != 3 {
		t.Errorf("RelationshipCount() = %d, want 3", g.RelationshipCount())
	}
}

func TestSpouseCanonicalOrder(t *testing.T) {
	g := New(quiet())
	mustAdd(t, g, "zed", "Zed")
	mustAdd(t, g, "amy", "Amy")

	id, err := g.Connect("zed", "amy", KindSpouse)
	if err != nil {
		t.Fatal(err)
	}
	if id != "spouse:amy:zed" {
		t.Errorf("id = %q, want spouse:amy:zed", id)
	}
	r, _ := g.Relationship(id)
	if r.SourceID != "amy" || r.TargetID != "zed" {
		t.Errorf("endpoints = %s,%s, want amy,zed", r.SourceID, r.TargetID)
	}
	if _, ok := g.Find("zed", "amy", KindSpouse); !ok {
		t.Error("Find() reversed spouse pair not found")
	}
}

func TestAddRelationshipCustomID(t *testing.T) {
	g := New(quiet())
	mustAdd(t, g, "a", "A")
	mustAdd(t, g, "b", "B")
	mustAdd(t, g, "c", "C")

	id, err := g.AddRelationship(Relationship{ID: "r1", SourceID: "a", TargetID: "b", Kind: KindParentChild, SharedStoryCount: 2})
	if err != nil {
		t.Fatal(err)
	}
	if id != "r1" {
		t.Errorf("id = %q, want r1", id)
	}
	_, err = g.AddRelationship(Relationship{ID: "r1", SourceID: "a", TargetID: "c", Kind: KindParentChild})
	if !errors.Is(err, errors.ErrCodeDuplicateRelationship) {
		t.Errorf("id collision: error = %v", err)
	}
	_, err = g.AddRelationship(Relationship{SourceID: "a", TargetID: "c", Kind: KindSpouse, SharedStoryCount: -1})
	if !errors.Is(err, errors.ErrCodeInvalidRelationship) {
		t.Errorf("negative shared count: error = %v", err)
	}
}

func TestRemoveMemberCascades(t *testing.T) {
	g := New(quiet())
	mustAdd(t, g, "p", "Parent")
	mustAdd(t, g, "c", "Child")
	mustAdd(t, g, "s", "Spouse")
	mustAdd(t, g, "o", "Other")
	g.Connect("p", "c", KindParentChild)
	g.Connect("p", "s", KindSpouse)
	keep, _ := g.Connect("s", "o", KindSpouse)

	if w := g.RemoveMember("p"); w != nil {
		t.Fatalf("RemoveMember() warning = %v", w)
	}
	if g.HasMember("p") {
		t.Error("member still present")
	}
	rels := g.Relationships()
	if len(rels) != 1 || rels[0].ID != keep {
		t.Errorf("Relationships() = %+v, want only %s", rels, keep)
	}
	if got := g.Incident("c"); got != nil {
		t.Errorf("Incident(c) = %+v, want nil", got)
	}
	// The removed pair can be recreated.
	mustAdd(t, g, "p", "Parent again")
	if _, err := g.Connect("p", "c", KindParentChild); err != nil {
		t.Errorf("reconnect after removal: %v", err)
	}
}

func TestRemoveMissingWarns(t *testing.T) {
	var buf bytes.Buffer
	g := New(WithLogger(log.New(&buf)))
	mustAdd(t, g, "a", "A")

	w := g.RemoveMember("ghost")
	if w == nil || w.Code != errors.WarnUnknownMember {
		t.Fatalf("RemoveMember(ghost) = %v, want UNKNOWN_MEMBER warning", w)
	}
	if w.Ref != "ghost" {
		t.Errorf("Ref = %q, want ghost", w.Ref)
	}
	if !strings.Contains(buf.String(), "ghost") {
		t.Errorf("warning not logged: %q", buf.String())
	}
	if g.MemberCount() != 1 {
		t.Errorf("graph changed: %d members", g.MemberCount())
	}

	dw := g.Disconnect("nope")
	if dw == nil || dw.Code != errors.WarnUnknownRelationship {
		t.Errorf("Disconnect(nope) = %v, want UNKNOWN_RELATIONSHIP warning", dw)
	}
}

func TestDisconnect(t *testing.T) {
	g := New(quiet())
	mustAdd(t, g, "a", "A")
	mustAdd(t, g, "b", "B")
	id, _ := g.Connect("a", "b", KindSpouse)

	if w := g.Disconnect(id); w != nil {
		t.Fatalf("Disconnect() = %v", w)
	}
	if g.RelationshipCount() != 0 {
		t.Errorf("RelationshipCount() = %d", g.RelationshipCount())
	}
	if _, err := g.Connect("b", "a", KindSpouse); err != nil {
		t.Errorf("reconnect: %v", err)
	}
}

func TestInsertionOrder(t *testing.T) {
	g := New(quiet())
	for _, id := range []string{"c", "a", "b"} {
		mustAdd(t, g, id, strings.ToUpper(id))
	}
	g.Connect("c", "b", KindParentChild)
	g.Connect("c", "a", KindParentChild)

	var ids []string
	for _, m := range g.Members() {
		ids = append(ids, m.ID)
	}
	if strings.Join(ids, ",") != "c,a,b" {
		t.Errorf("member order = %v", ids)
	}
	rels := g.Relationships()
	if rels[0].TargetID != "b" || rels[1].TargetID != "a" {
		t.Errorf("relationship order = %+v", rels)
	}
}

func TestUpdates(t *testing.T) {
	g := New(quiet())
	mustAdd(t, g, "a", "A")
	mustAdd(t, g, "b", "B")
	rid, _ := g.Connect("a", "b", KindSpouse)

	if err := g.UpdateStoryCount("a", 5, true); err != nil {
		t.Fatal(err)
	}
	if err := g.UpdateStoryCount("a", -1, false); !errors.Is(err, errors.ErrCodeInvalidMember) {
		t.Errorf("negative count: %v", err)
	}
	if err := g.UpdateStoryCount("zz", 1, false); !errors.Is(err, errors.ErrCodeUnknownMember) {
		t.Errorf("unknown member: %v", err)
	}
	m, _ := g.Member("a")
	if m.StoryCount != 5 || !m.HasNewStories {
		t.Errorf("member = %+v", m)
	}

	if err := g.UpdateSharedStoryCount(rid, 7); err != nil {
		t.Fatal(err)
	}
	if err := g.UpdateSharedStoryCount("zz", 1); !errors.Is(err, errors.ErrCodeUnknownRelationship) {
		t.Errorf("unknown relationship: %v", err)
	}
	r, _ := g.Relationship(rid)
	if r.SharedStoryCount != 7 {
		t.Errorf("SharedStoryCount = %d", r.SharedStoryCount)
	}

	if err := g.SetPosition("b", Position{X: 1, Y: 2}); err != nil {
		t.Fatal(err)
	}
	if err := g.Annotate("a", Annotation{Position: Position{X: 3}, Generation: 2, IsInDirectLineage: true}); err != nil {
		t.Fatal(err)
	}
	a, _ := g.Member("a")
	b, _ := g.Member("b")
	if b.Position != (Position{X: 1, Y: 2}) {
		t.Errorf("b.Position = %+v", b.Position)
	}
	if a.Generation != 2 || !a.IsInDirectLineage || a.Position.X != 3 {
		t.Errorf("a = %+v", a)
	}
	if err := g.Annotate("zz", Annotation{}); !errors.Is(err, errors.ErrCodeUnknownMember) {
		t.Errorf("Annotate unknown: %v", err)
	}
}

func TestMembersReturnsCopies(t *testing.T) {
	g := New(quiet())
	mustAdd(t, g, "a", "A")
	ms := g.Members()
	ms[0].DisplayName = "changed"
	m, _ := g.Member("a")
	if m.DisplayName != "A" {
		t.Errorf("store mutated through returned slice: %q", m.DisplayName)
	}
}

func TestBatch(t *testing.T) {
	g := New(quiet())
	mustAdd(t, g, "a", "A")

	err := g.Batch(func(tx *Graph) error {
		if _, err := tx.AddMember(Member{ID: "b", DisplayName: "B"}); err != nil {
			return err
		}
		if _, err := tx.Connect("a", "b", KindParentChild); err != nil {
			return err
		}
		_, err := tx.Connect("a", "missing", KindParentChild)
		return err
	})
	if !errors.Is(err, errors.ErrCodeUnknownMember) {
		t.Fatalf("Batch() error = %v", err)
	}
	if g.MemberCount() != 1 || g.RelationshipCount() != 0 {
		t.Errorf("failed batch leaked: %d members, %d relationships", g.MemberCount(), g.RelationshipCount())
	}

	err = g.Batch(func(tx *Graph) error {
		tx.AddMember(Member{ID: "b", DisplayName: "B"})
		_, err := tx.Connect("a", "b", KindParentChild)
		return err
	})
	if err != nil {
		t.Fatalf("Batch() error = %v", err)
	}
	if g.MemberCount() != 2 || g.RelationshipCount() != 1 {
		t.Errorf("committed batch: %d members, %d relationships", g.MemberCount(), g.RelationshipCount())
	}
}

func TestClone(t *testing.T) {
	g := New(quiet())
	mustAdd(t, g, "a", "A")
	mustAdd(t, g, "b", "B")
	g.Connect("a", "b", KindParentChild)

	c := g.Clone()
	c.RemoveMember("b")
	c.UpdateStoryCount("a", 9, false)

	if g.MemberCount() != 2 || g.RelationshipCount() != 1 {
		t.Error("clone mutation affected original")
	}
	if m, _ := g.Member("a"); m.StoryCount != 0 {
		t.Errorf("original StoryCount = %d", m.StoryCount)
	}
}
