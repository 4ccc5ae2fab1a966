package remote

import "social-integration/domain/model"

// attachmentKinds maps (platform, attachment type) to the platform's wire name.
// A missing entry means the platform cannot deliver that attachment type.
var attachmentKinds = map[model.Platform]map[model.AttachmentType]string{
	model.PlatformFacebook: {
		model.AttachmentImage: "image",
		model.AttachmentVideo: "video",
		model.AttachmentAudio: "audio",
		model.AttachmentFile:  "file",
	},
	model.PlatformZalo: {
		model.AttachmentImage: "image",
	},
}

// AttachmentKind resolves the wire name or returns an unsupported-operation error.
func AttachmentKind(platform model.Platform, t model.AttachmentType) (string, error) {
	if kind, ok := attachmentKinds[platform][t]; ok {
		return kind, nil
	}
	return "", model.NewError(model.KindUnsupportedOperation, platform, "attachment type "+string(t)+" not supported", nil)
}
