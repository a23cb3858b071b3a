package archive

import (
	"appbridge/internal/bridge/domain"
	perr "appbridge/internal/platform/errors"
)

// The Alipay request envelope is a keyed archive with a fixed leading
// section (archiver tag, app metadata, request type marker) and one of
// three fixed tails selected by the media kind. The UID layout below is
// external contract; each template is enumerated, never inferred.

const alipaySDKVersion = "1.1.0.151016"

// envelope root UID values per template; the trailing class entries land on
// positions derived from these
const (
	textRootUID  = 20
	imageRootUID = 21
	urlRootUID   = 24
)

// ShareEnvelope builds the $archiver/$objects/$top/$version container for an
// Alipay share request. scene selects friends vs timeline; the media kind of
// info selects the text/image/url template. Unsupported media kinds are the
// caller's contract violation and must be rejected before calling here
func ShareEnvelope(appID string, host domain.HostInfo, scene int, info domain.Info) (map[string]any, error) {
	rootUID := textRootUID
	mediaClass := "APShareTextObject"
	switch info.Media.(type) {
	case nil:
		// text template
	case domain.MediaImage:
		rootUID = imageRootUID
		mediaClass = "APShareImageObject"
	case domain.MediaURL:
		rootUID = urlRootUID
		mediaClass = "APShareWebObject"
	default:
		return nil, perr.NotDeliverablef("alipay does not support this media kind")
	}

	objects := []any{
		nullPlaceholder,
		map[string]any{
			keyClass:     UID(rootUID),
			"NS.keys":    []any{UID(2), UID(3)},
			"NS.objects": []any{UID(4), UID(11)},
		},
		"app",
		"req",
		map[string]any{
			keyClass:     UID(10),
			"appKey":     UID(6),
			"bundleId":   UID(7),
			"name":       UID(5),
			"scheme":     UID(8),
			"sdkVersion": UID(9),
		},
		host.Name,
		appID,
		host.BundleID,
		"ap" + appID,
		alipaySDKVersion,
		map[string]any{
			keyClasses:   []any{"APSdkApp", "NSObject"},
			keyClassname: "APSdkApp",
		},
		map[string]any{
			keyClass:  UID(rootUID - 1),
			"message": UID(13),
			"scene":   UID(rootUID - 2),
			"type":    UID(12),
		},
		0,
	}

	switch media := info.Media.(type) {
	case nil:
		objects = append(objects,
			map[string]any{keyClass: UID(17), "mediaObject": UID(14)},
			map[string]any{keyClass: UID(16), "text": UID(15)},
			info.Title,
		)
	case domain.MediaImage:
		if len(media.Data) == 0 {
			return nil, perr.InvalidMediaf("alipay image share has no image data")
		}
		objects = append(objects,
			map[string]any{keyClass: UID(18), "mediaObject": UID(14)},
			map[string]any{keyClass: UID(17), "imageData": UID(15)},
			map[string]any{keyClass: UID(16), "NS.data": media.Data},
			mutableDataClass(),
		)
	case domain.MediaURL:
		objects = append(objects,
			map[string]any{
				keyClass:      UID(21),
				"desc":        UID(15),
				"mediaObject": UID(18),
				"thumbData":   UID(16),
				"title":       UID(14),
			},
			info.Title,
			info.Description,
			map[string]any{keyClass: UID(17), "NS.data": thumbnailOrEmpty(info)},
			mutableDataClass(),
			map[string]any{keyClass: UID(20), "webpageUrl": UID(19)},
			media.URL,
		)
	}

	objects = append(objects,
		map[string]any{
			keyClasses:   []any{mediaClass, "NSObject"},
			keyClassname: mediaClass,
		},
		map[string]any{
			keyClasses:   []any{"APMediaMessage", "NSObject"},
			keyClassname: "APMediaMessage",
		},
		scene,
		map[string]any{
			keyClasses:   []any{"APSendMessageToAPReq", "APBaseReq", "NSObject"},
			keyClassname: "APSendMessageToAPReq",
		},
		map[string]any{
			keyClasses:   []any{"NSMutableDictionary", "NSDictionary", "NSObject"},
			keyClassname: "NSMutableDictionary",
		},
	)

	return map[string]any{
		keyArchiver: archiverName,
		keyObjects:  objects,
		keyTop:      map[string]any{"root": UID(1)},
		keyVersion:  archiveVersion,
	}, nil
}

func mutableDataClass() map[string]any {
	return map[string]any{
		keyClasses:   []any{"NSMutableData", "NSData", "NSObject"},
		keyClassname: "NSMutableData",
	}
}

func thumbnailOrEmpty(info domain.Info) []byte {
	if info.Thumbnail == nil {
		return []byte{}
	}
	return info.Thumbnail
}

// ResultCode extracts the share result code from an Alipay response
// envelope: by contract it sits at $objects[12]. The second return is false
// when the payload does not have that shape
func ResultCode(data []byte) (int, bool) {
	container, err := UnmarshalDict(data)
	if err != nil {
		return 0, false
	}
	objects, ok := container[keyObjects].([]any)
	if !ok || len(objects) <= 12 {
		return 0, false
	}
	n, ok := intOf(objects[12])
	if !ok {
		return 0, false
	}
	return int(n), true
}

// CheckUIDs verifies structural well-formedness of an envelope: every UID
// reference must resolve to a valid index in the same $objects array
func CheckUIDs(container map[string]any) error {
	objects, ok := container[keyObjects].([]any)
	if !ok {
		return perr.Serializef("envelope has no $objects array")
	}
	limit := uint64(len(objects))
	var walk func(v any) error
	walk = func(v any) error {
		switch val := v.(type) {
		case map[string]any:
			if ref, ok := uidOf(val); ok {
				if ref >= limit {
					return perr.Serializef("UID %d outside $objects (len %d)", ref, limit)
				}
				return nil
			}
			for _, member := range val {
				if err := walk(member); err != nil {
					return err
				}
			}
		case []any:
			for _, member := range val {
				if err := walk(member); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(container[keyTop]); err != nil {
		return err
	}
	return walk(objects)
}
