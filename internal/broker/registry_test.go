package broker

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestSubscriptionRegistry_AddRemove(t *testing.T) {
	reg := newSubscriptionRegistry()

	reg.add("MES")
	reg.add("ES")
	reg.add("MES") // idempotent

	if !reg.has("MES") {
		t.Error("expected MES to be subscribed")
	}
	if reg.len() != 2 {
		t.Errorf("len = %d, want 2", reg.len())
	}
	if got, want := reg.current(), []string{"ES", "MES"}; !reflect.DeepEqual(got, want) {
		t.Errorf("current = %v, want %v", got, want)
	}

	reg.remove("MES")
	if reg.has("MES") {
		t.Error("expected MES to be removed")
	}
	reg.remove("MES") // no-op
	if reg.len() != 1 {
		t.Errorf("len = %d, want 1", reg.len())
	}
}

func TestSubscriptionRegistry_ConcurrentAdd(t *testing.T) {
	reg := newSubscriptionRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg.add("MES")
			reg.add(fmt.Sprintf("SYM-%d", i%5))
		}(i)
	}
	wg.Wait()

	if !reg.has("MES") {
		t.Error("expected MES to be subscribed")
	}
	if reg.len() != 6 {
		t.Errorf("len = %d, want 6", reg.len())
	}
}
