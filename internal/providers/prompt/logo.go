package prompt

import "strings"

// logoPreamble frames every logo request. The wizard targets small community
// organizations, so the style is fixed rather than user-selectable.
const logoPreamble = "A professional, minimalist logo for a non-profit organization. " +
	"Clean flat vector style, simple geometric shapes, solid background, " +
	"trustworthy and approachable. The organization: "

// motionPreamble frames every animation request around the seed logo.
const motionPreamble = "Animate this logo. Keep the logo crisp and centered. Motion: "

// Logo builds the full image prompt for a user-supplied description.
func Logo(description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return strings.TrimSuffix(logoPreamble, "The organization: ")
	}
	return logoPreamble + description
}

// Motion builds the full video prompt for a user-supplied motion description.
func Motion(motion string) string {
	motion = strings.TrimSpace(motion)
	if motion == "" {
		return motionPreamble + "a subtle, gentle reveal"
	}
	return motionPreamble + motion
}
