package store

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDirectKeyIsOrderIndependent(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	if DirectKey(a, b) != DirectKey(b, a) {
		t.Errorf("DirectKey(a, b) = %q, DirectKey(b, a) = %q; want equal",
			DirectKey(a, b), DirectKey(b, a))
	}
}

func TestDirectKeyDistinguishesPairs(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := primitive.NewObjectID()

	if DirectKey(a, b) == DirectKey(a, c) {
		t.Error("different member pairs produced the same key")
	}
}
