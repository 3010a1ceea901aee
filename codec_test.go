package formz

import "testing"

func TestJSONCodec_Unmarshal(t *testing.T) {
	var item Item
	if err := (JSONCodec{}).Unmarshal([]byte(`{"id":"TEST001","date_release":"2024-01-01"}`), &item); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if item.ID != "TEST001" || item.DateRelease != "2024-01-01" {
		t.Errorf("unexpected item %+v", item)
	}
}

func TestJSONCodec_UnmarshalInvalid(t *testing.T) {
	var item Item
	if err := (JSONCodec{}).Unmarshal([]byte(`{not valid json}`), &item); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestYAMLCodec_Unmarshal(t *testing.T) {
	var item Item
	data := []byte("id: TEST001\nname: Test Product\ndate_revision: \"2025-01-01\"")
	if err := (YAMLCodec{}).Unmarshal(data, &item); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if item.Name != "Test Product" || item.DateRevision != "2025-01-01" {
		t.Errorf("unexpected item %+v", item)
	}
}

func TestCodec_ContentTypes(t *testing.T) {
	if ct := (JSONCodec{}).ContentType(); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}
	if ct := (YAMLCodec{}).ContentType(); ct != "application/x-yaml" {
		t.Errorf("expected application/x-yaml, got %q", ct)
	}
}

func TestAutoCodec_DetectsFormat(t *testing.T) {
	var fromJSON, fromYAML Draft
	if err := (AutoCodec{}).Unmarshal([]byte(`  {"name": "Widget"}`), &fromJSON); err != nil {
		t.Fatalf("json: %v", err)
	}
	if err := (AutoCodec{}).Unmarshal([]byte("name: Widget"), &fromYAML); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	for _, d := range []Draft{fromJSON, fromYAML} {
		v, ok := d.value(FieldName)
		if !ok || v != "Widget" {
			t.Errorf("expected name Widget, got %q (set=%v)", v, ok)
		}
		if _, ok := d.value(FieldLogo); ok {
			t.Error("expected logo to be unset")
		}
	}
}

func TestDraft_EmptyStringIsSet(t *testing.T) {
	var d Draft
	if err := (JSONCodec{}).Unmarshal([]byte(`{"date_release": ""}`), &d); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if v, ok := d.value(FieldDateRelease); !ok || v != "" {
		t.Errorf("expected explicit empty release date, got %q (set=%v)", v, ok)
	}
}
