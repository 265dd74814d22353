package templates

import "fmt"

// RenderIncidentReceivedEmail generates the HTML for the incident submission
// receipt email
func RenderIncidentReceivedEmail(name, incidentTitle string) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Incident Received - Disaster Portal</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f3f4f6; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #dc2626 0%%, #b91c1c 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #374151; }
    .content h2 { color: #111827; margin-top: 0; }
    .highlight-box { background: #fef2f2; border: 1px solid #fecaca; border-radius: 12px; padding: 20px; margin: 20px 0; }
    .highlight-box h3 { color: #b91c1c; margin-top: 0; font-size: 16px; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Incident Received</h1>
    </div>
    <div class="content">
      <h2>Hi %s,</h2>
      <p>Your incident <strong>%s</strong> has been submitted.</p>

      <div class="highlight-box">
        <h3>What happens next?</h3>
        <p style="margin-bottom: 0;">Our response team reviews every report. You will see the status change in the portal as it moves from <strong>Pending</strong> to <strong>In Progress</strong> and finally <strong>Resolved</strong>.</p>
      </div>

      <p>You can follow the incident and any relief campaigns opened for it from your dashboard.</p>
    </div>
    <div class="footer">
      <p>Disaster Portal &middot; You received this email because you filed an incident report.</p>
    </div>
  </div>
</body>
</html>`, name, incidentTitle)
}
