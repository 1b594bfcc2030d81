package subscriber

// Client-facing messages. They match the wording subscribers and the admin
// UI already depend on.
const (
	MsgInvalidEmail           = "Please enter a valid email address"
	MsgEmailRequired          = "Email address is required"
	MsgAlreadySubscribed      = "This email is already subscribed to our newsletter"
	MsgPreviouslyUnsubscribed = "This email was previously unsubscribed. Please contact support to reactivate your subscription."
	MsgSubscribeExpired       = "Your previous confirmation link has expired. Please subscribe again."
	MsgConfirmationSent       = "Confirmation email sent. Please check your inbox."
	MsgConfirmationResent     = "Confirmation email has been resent. Please check your inbox."
	MsgConfirmationFailed     = "Failed to send confirmation email. Please try again."
	MsgSubscriptionFailed     = "Subscription failed. Please try again."

	MsgTokenRequired            = "Confirmation token is required"
	MsgInvalidConfirmationToken = "Invalid or expired confirmation token"
	MsgAlreadyConfirmed         = "Email address already confirmed"
	MsgConfirmationExpired      = "Confirmation token has expired. Please subscribe again."
	MsgConfirmed                = "Email confirmed successfully! Welcome to our newsletter! 🎉"
	MsgConfirmFailed            = "Confirmation failed. Please try again."

	MsgNoPendingSubscription = "No pending subscription found for this email address"
	MsgResendExpired         = "Confirmation has expired. Please subscribe again."
	MsgResendFailed          = "Request failed. Please try again."

	MsgUnsubscribeTokenRequired = "Unsubscribe token is required"
	MsgInvalidUnsubscribeToken  = "Invalid or expired unsubscribe token"
	MsgAlreadyUnsubscribed      = "Email address is already unsubscribed"
	MsgUnsubscribed             = "Successfully unsubscribed from newsletter"
	MsgUnsubscribeFailed        = "Unsubscribe failed. Please try again."

	MsgAdminEmailRequired  = "Email is required"
	MsgSubscriberNotFound  = "Subscriber not found"
	MsgForceUnsubscribed   = "Successfully unsubscribed"
	MsgForceUnsubscribeErr = "Failed to unsubscribe"
	MsgAlreadyExists       = "Subscriber already exists"
	MsgCSVRequired         = "CSV data is required"
	MsgBulkUploadFailed    = "Bulk upload failed"
	MsgListFailed          = "Failed to retrieve subscribers"

	MsgServiceUnavailable = "Service temporarily unavailable"
	MsgRequestFailed      = "Request failed. Please try again."
)
