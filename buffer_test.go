package sketchview

import (
	"reflect"
	"testing"
)

func TestBufferPushDropsZeroWeight(t *testing.T) {
	buf := newEntryBuffer(4)
	buf.push(5, 9)
	buf.push(2, 3)
	buf.push(-1, 7)
	buf.push(3, 0)
	buf.push(4, -1)

	if val := len(buf.vec); val != 3 {
		t.Error("expected 3, got", val)
	}
}

func TestBufferGenerateEntryList(t *testing.T) {
	buf := newEntryBuffer(4)
	buf.push(5, 9)
	buf.push(2, 3)
	buf.push(-1, 7)
	buf.push(2, 1)

	expected := []bufEntry{{-1, 7}, {2, 4}, {5, 9}}
	if got := buf.generateEntryList(); !reflect.DeepEqual(expected, got) {
		t.Errorf("expected %v, got %v", expected, got)
	}
	if val := len(buf.vec); val != 0 {
		t.Error("expected buffer to be cleared, got size", val)
	}
}

func TestBufferGenerateEntryListAllEqual(t *testing.T) {
	buf := newEntryBuffer(0)
	for i := 0; i < 5; i++ {
		buf.push(7, 2)
	}

	expected := []bufEntry{{7, 10}}
	if got := buf.generateEntryList(); !reflect.DeepEqual(expected, got) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestBufferGenerateEntryListEmpty(t *testing.T) {
	buf := newEntryBuffer(-1)
	if got := buf.generateEntryList(); len(got) != 0 {
		t.Errorf("expected no entries, got %v", got)
	}
}
