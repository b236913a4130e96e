// Package serialization converts message bodies to and from Go values.
//
// JSON uses json-iterator in its standard library compatible mode. Protobuf
// uses the binary wire format and requires values implementing
// proto.Message. A Registry picks the serializer from a delivery's content
// type and falls back to a default when none is set:
//
//	reg := serialization.NewRegistry()
//	s, err := reg.Lookup(delivery.ContentType)
//	if err != nil {
//		return err
//	}
//	var evt OrderCreated
//	err = s.Unmarshal(delivery.Body, &evt)
package serialization
