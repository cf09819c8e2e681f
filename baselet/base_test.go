package baselet

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestOpenBase(t *testing.T) {
	store := NewMemoryStore()
	if _, err := CreateCountBase[int](store, "counts", 4); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateHashBase[int](store, "hashes", 2); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateRangeBase[Doc](store, "events", 4, "at", "id", 2); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		want BaseType
	}{
		{"counts", CountBaseType},
		{"hashes", HashBaseType},
		{"events", RangeBaseType},
		{"events_ids", HashBaseType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := OpenBase(store, tt.name)
			if err != nil {
				t.Fatalf("Expected no error, but got %v", err)
			}
			if base.Type() != tt.want || base.Name() != tt.name {
				t.Errorf("Expected %s %s, but got %s %s",
					tt.want, tt.name, base.Type(), base.Name())
			}
		})
	}

	t.Run("Concrete types", func(t *testing.T) {
		base, err := OpenBase(store, "events")
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := base.(*RangeBase[Doc]); !ok {
			t.Errorf("Expected *RangeBase[Doc], but got %T", base)
		}
		base, err = OpenBase(store, "counts")
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := base.(*CountBase[any]); !ok {
			t.Errorf("Expected *CountBase[any], but got %T", base)
		}
	})

	t.Run("Not found", func(t *testing.T) {
		if _, err := OpenBase(store, "nope"); !errors.Is(err, ErrDatabaseNotFound) {
			t.Errorf("Expected ErrDatabaseNotFound, but got %v", err)
		}
	})

	t.Run("Unknown type", func(t *testing.T) {
		if err := store.Set("odd/config.json", []byte(`{"type":"ODD_BASE"}`)); err != nil {
			t.Fatal(err)
		}
		if _, err := OpenBase(store, "odd"); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("Expected ErrTypeMismatch, but got %v", err)
		}
	})

	t.Run("Corrupt descriptor", func(t *testing.T) {
		if err := store.Set("bad/config.json", []byte(`{`)); err != nil {
			t.Fatal(err)
		}
		if _, err := OpenBase(store, "bad"); err == nil {
			t.Error("Expected an error, but got nil")
		}
	})
}

func TestCreateOrOpen(t *testing.T) {
	openErr := errors.New("open")
	open := func() (int, error) { return 2, openErr }

	v, err := createOrOpen(func() (int, error) { return 1, nil }, open)
	if v != 1 || err != nil {
		t.Errorf("Expected (1, nil), but got (%d, %v)", v, err)
	}
	v, err = createOrOpen(func() (int, error) { return 0, ErrDatabaseExists }, open)
	if v != 2 || !errors.Is(err, openErr) {
		t.Errorf("Expected (2, open), but got (%d, %v)", v, err)
	}
	_, err = createOrOpen(func() (int, error) { return 0, TestError }, open)
	if !errors.Is(err, TestError) {
		t.Errorf("Expected TestError, but got %v", err)
	}
}

func TestOptions(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		o := makeOptions(nil)
		if o.fetchConcurrency != DefaultFetchConcurrency {
			t.Errorf("Expected %d, but got %d", DefaultFetchConcurrency, o.fetchConcurrency)
		}
		if codecExtension(o.codec) != "json" {
			t.Errorf("Expected json, but got %s", codecExtension(o.codec))
		}
		if o.logger == nil {
			t.Error("Expected a logger, but got nil")
		}
	})

	t.Run("Nil values are ignored", func(t *testing.T) {
		o := makeOptions([]Option{WithCodec(nil), WithLogger(nil)})
		if o.codec == nil || o.logger == nil {
			t.Error("Expected the defaults to be kept")
		}
	})

	t.Run("Codec extension", func(t *testing.T) {
		store := NewMemoryStore()
		c, err := CreateCountBase[string](store, "gobs", 2, WithCodec(GobCodec()))
		if err != nil {
			t.Fatal(err)
		}
		if err = c.Insert("", 0, "x"); err != nil {
			t.Fatal(err)
		}
		if _, err = store.Get("gobs/0.gob"); err != nil {
			t.Errorf("Expected gobs/0.gob, but got %v", err)
		}
		// Descriptors stay JSON
		if _, err = store.Get("gobs/config.json"); err != nil {
			t.Errorf("Expected gobs/config.json, but got %v", err)
		}
		reopened, err := OpenCountBase[string](store, "gobs", WithCodec(GobCodec()))
		if err != nil {
			t.Fatal(err)
		}
		v, ok, err := reopened.Get("", 0)
		if err != nil || !ok || v != "x" {
			t.Errorf("Expected (x, true, nil), but got (%s, %v, %v)", v, ok, err)
		}
	})

	t.Run("Custom codec", func(t *testing.T) {
		var encoded int
		codec := &MockCodec{}
		codec.EncodeFunc = func(value any) ([]byte, error) {
			encoded++
			return JSONCodec().Encode(value)
		}
		c, err := CreateCountBase[int](NewMemoryStore(), "c", 2, WithCodec(codec))
		if err != nil {
			t.Fatal(err)
		}
		if err = c.Insert("", 0, 1); err != nil {
			t.Fatal(err)
		}
		if encoded != 1 {
			t.Errorf("Expected 1 bucket encoding, but got %d", encoded)
		}
	})

	t.Run("Logger", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		store := NewMockStore()
		r, err := CreateRangeBase[Doc](store, "events", 3, "at", "id", 2,
			WithLogger(zap.New(core)))
		if err != nil {
			t.Fatal(err)
		}
		store.SetFunc = func(path string, data []byte) error {
			if path == "events_ids/aa.json" {
				return TestError
			}
			return store.mem.Set(path, data)
		}
		err = r.Insert("", Doc{"at": 1.0, "id": "aa"})
		if !errors.Is(err, TestError) {
			t.Fatalf("Expected TestError, but got %v", err)
		}
		warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
		if len(warnings) != 1 {
			t.Fatalf("Expected 1 warning, but got %d", len(warnings))
		}
		fields := warnings[0].ContextMap()
		if fields["database"] != "events" || fields["id"] != "aa" {
			t.Errorf("Unexpected warning fields: %v", fields)
		}
		if logs.FilterMessage("bucket written").Len() == 0 {
			t.Error("Expected debug entries for bucket writes")
		}
	})
}

func TestConfig(t *testing.T) {
	store := NewMemoryStore()
	events := newTestRangeBase(t, store, 10)
	insertEvents(t, events, "", event(5, "aa"))

	config, err := events.Config()
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if config.Sizes[""] != 1 || config.RangeKey != "createdAt" {
		t.Errorf("Expected size 1 and range key createdAt, but got %+v", config)
	}

	// Mutating the copy leaves the handle alone
	config.Sizes[""] = 99
	if events.Size("") != 1 {
		t.Errorf("Expected size to be 1, but got %d", events.Size(""))
	}

	counts, err := CreateCountBase[int](store, "counts", 4)
	if err != nil {
		t.Fatal(err)
	}
	if c, _ := counts.Config(); c.BucketSize != 4 || c.Type != CountBaseType {
		t.Errorf("Expected a COUNT_BASE of bucket size 4, but got %+v", c)
	}
	hashes, err := CreateHashBase[int](store, "hashes", 3)
	if err != nil {
		t.Fatal(err)
	}
	if c, _ := hashes.Config(); c.PrefixSize != 3 {
		t.Errorf("Expected prefix size 3, but got %d", c.PrefixSize)
	}
}
