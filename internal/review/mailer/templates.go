package mailer

import "fmt"

// VerificationEmail builds the message asking a reviewer to confirm their
// address. The link embeds the review ID and the single-use token and expires
// with the token.
func VerificationEmail(userName, verificationURL string) (subject, body string) {
	subject = "Verify Your Review on InnoSpot"
	body = fmt.Sprintf(`Hi %s,

Thank you for submitting your review! Please click the link below to verify and publish your review:

%s

This link will expire in 24 hours.

Best regards,
The InnoSpot Team`, userName, verificationURL)
	return subject, body
}

// ApprovalEmail builds the message sent when a review goes live.
func ApprovalEmail(userName string) (subject, body string) {
	subject = "Your Review Has Been Published"
	body = fmt.Sprintf(`Hi %s,

Great news! Your review has been verified and published on InnoSpot.

Thank you for sharing your valuable feedback with the community.

Best regards,
The InnoSpot Team`, userName)
	return subject, body
}

// VerificationConfirmedEmail builds the message sent when a review is
// verified but still waits for moderation.
func VerificationConfirmedEmail(userName string) (subject, body string) {
	subject = "Your Review Has Been Verified"
	body = fmt.Sprintf(`Hi %s,

Thank you for verifying your review! It is now awaiting moderation and will be published shortly.

Best regards,
The InnoSpot Team`, userName)
	return subject, body
}

// RejectionEmail builds the message sent when moderation rejects a review.
func RejectionEmail(userName, reason string) (subject, body string) {
	subject = "Review Not Published"
	explanation := "Please ensure your review follows our community guidelines."
	if reason != "" {
		explanation = "Reason: " + reason
	}
	body = fmt.Sprintf(`Hi %s,

Unfortunately, we were unable to publish your review.

%s

You may submit a new review at any time.

Best regards,
The InnoSpot Team`, userName, explanation)
	return subject, body
}
