package snowflake

import "testing"

func TestNewNodeRange(t *testing.T) {
	if _, err := NewNode(-1); err == nil {
		t.Fatal("negative node must be rejected")
	}
	if _, err := NewNode(1024); err == nil {
		t.Fatal("node above 1023 must be rejected")
	}
	if _, err := NewNode(0); err != nil {
		t.Fatalf("node 0: %v", err)
	}
}

func TestGenerateMonotonicAndUnique(t *testing.T) {
	n, err := NewNode(1)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[int64]bool, 10000)
	last := int64(0)
	for i := 0; i < 10000; i++ {
		id := n.Generate()
		if id <= last {
			t.Fatalf("id %d not greater than previous %d", id, last)
		}
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
		last = id
	}
}
