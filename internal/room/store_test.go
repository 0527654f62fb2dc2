package room

import (
	"fmt"
	"sync"
	"testing"
)

func TestEnsureCreatesWithPlaceholder(t *testing.T) {
	store := NewStore()

	store.Ensure("r1")

	doc, ok := store.Document("r1")
	if !ok {
		t.Fatal("room should exist after Ensure")
	}
	if doc != PlaceholderDocument {
		t.Errorf("expected placeholder document, got %q", doc)
	}

	lang, _ := store.Language("r1")
	if lang != DefaultLanguage {
		t.Errorf("expected default language, got %q", lang)
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	store := NewStore()

	store.Ensure("r1")
	store.AddMember("r1", "c1", "alice")
	store.SetDocument("r1", "print(1)")

	store.Ensure("r1")

	doc, _ := store.Document("r1")
	if doc != "print(1)" {
		t.Errorf("Ensure must not reset an existing room, got %q", doc)
	}
	if names := store.MemberNames("r1"); len(names) != 1 {
		t.Errorf("expected 1 member, got %d", len(names))
	}
}

func TestRoomExistsIffNonEmpty(t *testing.T) {
	store := NewStore()

	store.Ensure("r1")
	store.AddMember("r1", "c1", "alice")
	store.AddMember("r1", "c2", "bob")

	if removed, destroyed := store.RemoveMember("r1", "c1"); !removed || destroyed {
		t.Fatalf("expected removed=true destroyed=false, got %v %v", removed, destroyed)
	}
	if !store.Exists("r1") {
		t.Fatal("room with one remaining member should still exist")
	}

	if removed, destroyed := store.RemoveMember("r1", "c2"); !removed || !destroyed {
		t.Fatalf("expected removed=true destroyed=true, got %v %v", removed, destroyed)
	}
	if store.Exists("r1") {
		t.Fatal("empty room should be deleted atomically with the removal")
	}
}

func TestMutationsNoOpOnAbsentRoom(t *testing.T) {
	store := NewStore()

	store.AddMember("ghost", "c1", "alice")
	store.SetDocument("ghost", "x")
	store.SetLanguage("ghost", "python")

	if store.Exists("ghost") {
		t.Fatal("mutations must not create rooms")
	}
	if removed, destroyed := store.RemoveMember("ghost", "c1"); removed || destroyed {
		t.Fatal("RemoveMember on absent room should be a no-op")
	}
	if names := store.MemberNames("ghost"); names != nil {
		t.Fatalf("expected nil member names, got %v", names)
	}
}

func TestRemoveMemberUnknownConn(t *testing.T) {
	store := NewStore()
	store.Ensure("r1")
	store.AddMember("r1", "c1", "alice")

	if removed, _ := store.RemoveMember("r1", "c2"); removed {
		t.Fatal("removing an unknown connection should be a no-op")
	}
	if !store.Exists("r1") {
		t.Fatal("room should survive a no-op removal")
	}
}

func TestLastWriteWins(t *testing.T) {
	store := NewStore()
	store.Ensure("r1")
	store.AddMember("r1", "c1", "alice")

	store.SetDocument("r1", "one")
	store.SetDocument("r1", "two")
	store.SetLanguage("r1", "python")
	store.SetLanguage("r1", "cpp")

	if doc, _ := store.Document("r1"); doc != "two" {
		t.Errorf("expected document 'two', got %q", doc)
	}
	if lang, _ := store.Language("r1"); lang != "cpp" {
		t.Errorf("expected language 'cpp', got %q", lang)
	}
}

func TestDuplicateNamesAreDistinctMembers(t *testing.T) {
	store := NewStore()
	store.Ensure("r1")
	store.AddMember("r1", "c1", "alice")
	store.AddMember("r1", "c2", "alice")

	names := store.MemberNames("r1")
	if len(names) != 2 {
		t.Fatalf("expected 2 members, got %d", len(names))
	}

	store.RemoveMember("r1", "c1")
	names = store.MemberNames("r1")
	if len(names) != 1 || names[0] != "alice" {
		t.Fatalf("expected the other alice to remain, got %v", names)
	}
}

func TestMemberNamesSorted(t *testing.T) {
	store := NewStore()
	store.Ensure("r1")
	store.AddMember("r1", "c1", "zoe")
	store.AddMember("r1", "c2", "alice")
	store.AddMember("r1", "c3", "bob")

	names := store.MemberNames("r1")
	expected := []string{"alice", "bob", "zoe"}
	for i, name := range expected {
		if names[i] != name {
			t.Fatalf("expected sorted names %v, got %v", expected, names)
		}
	}
}

func TestListAndCount(t *testing.T) {
	store := NewStore()
	store.Ensure("b")
	store.AddMember("b", "c1", "alice")
	store.Ensure("a")
	store.AddMember("a", "c2", "bob")
	store.SetLanguage("a", "python")

	if store.Count() != 2 {
		t.Fatalf("expected 2 rooms, got %d", store.Count())
	}

	infos := store.List()
	if infos[0].ID != "a" || infos[1].ID != "b" {
		t.Fatalf("expected sorted listing, got %v", infos)
	}
	if infos[0].Language != "python" || infos[0].MemberCount != 1 {
		t.Fatalf("unexpected info snapshot: %+v", infos[0])
	}
}

func TestStoreConcurrency(t *testing.T) {
	store := NewStore()
	store.Ensure("r1")
	store.AddMember("r1", "anchor", "anchor")

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			connID := fmt.Sprintf("c%d", i)
			store.AddMember("r1", connID, "user")
			store.SetDocument("r1", "text")
			store.RemoveMember("r1", connID)
		}(i)
	}
	wg.Wait()

	names := store.MemberNames("r1")
	if len(names) != 1 {
		t.Errorf("expected only the anchor member to remain, got %d", len(names))
	}
}
