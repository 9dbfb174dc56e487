package template

import "github.com/lexhaven/reminder-gateway/internal/model"

// builtInTemplates is the compiled-in template set. Keys are uppercase and
// stable; operator overrides may replace any of them by key at startup.
var builtInTemplates = []model.Template{
	{
		Key:         "GENERIC",
		Label:       "General reminder",
		Description: "Fallback template used when a reminder references an unknown key.",
		Subject:     "Reminder from [[org_name]]",
		Body: "Dear [[recipient_name]],<br><br>" +
			"This is a reminder from [[org_name]] regarding your matter, scheduled for [[scheduled_date]].<br><br>" +
			"If you have any questions, please contact our office.",
	},
	{
		Key:         "APPOINTMENT_REMINDER",
		Label:       "Appointment reminder",
		Description: "Reminds a client of an upcoming appointment at the office.",
		Subject:     "Your appointment with [[org_name]] on [[scheduled_date]]",
		Body: "Dear [[recipient_name]],<br><br>" +
			"We look forward to seeing you for your appointment on [[scheduled_date]].<br><br>" +
			"If you need to reschedule, please contact us as soon as possible.<br><br>" +
			"Kind regards,<br>[[org_name]]",
	},
	{
		Key:         "COURT_DATE",
		Label:       "Court date notice",
		Description: "Notifies a client of a scheduled court hearing.",
		Subject:     "Court hearing on [[scheduled_date]] - [[case_number]]",
		Body: "Dear [[recipient_name]],<br><br>" +
			"Your court hearing in case [[case_number]] is scheduled for [[scheduled_date]] at [[court_name]].<br><br>" +
			"Please arrive at least 30 minutes early and bring a valid photo ID.<br><br>" +
			"Kind regards,<br>[[org_name]]",
	},
	{
		Key:         "DOCUMENT_SIGNING",
		Label:       "Document signing request",
		Description: "Asks a client to review and sign outstanding documents.",
		Subject:     "Documents awaiting your signature",
		Body: "Dear [[recipient_name]],<br><br>" +
			"You have documents awaiting your signature: [[document_name]].<br><br>" +
			"Please review and sign them before [[scheduled_date]].<br><br>" +
			"Kind regards,<br>[[org_name]]",
	},
	{
		Key:         "PAYMENT_DUE",
		Label:       "Payment reminder",
		Description: "Reminds a client of an outstanding invoice.",
		Subject:     "Payment reminder - invoice [[invoice_number]]",
		Body: "Dear [[recipient_name]],<br><br>" +
			"Our records show invoice [[invoice_number]] for [[amount]] is due on [[scheduled_date]].<br><br>" +
			"If you have already made this payment, please disregard this notice.<br><br>" +
			"Kind regards,<br>[[org_name]]",
	},
}
