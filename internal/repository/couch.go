package repository

import "encoding/json"

// mergeDoc re-serializes an entity into a CouchDB document while keeping the
// _id/_rev of the stored revision, so a Put lands as an update.
func mergeDoc(existing map[string]interface{}, entity interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(entity)
	if err != nil {
		return nil, err
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	doc["_id"] = existing["_id"]
	if rev, ok := existing["_rev"]; ok {
		doc["_rev"] = rev
	}

	return doc, nil
}
