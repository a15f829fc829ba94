package service

import "fmt"

func verificationEmailTemplate(name, verifyURL, appName string) (string, string) {
	subject := fmt.Sprintf("Verify your email address for %s", appName)
	body := fmt.Sprintf(`Hi %s,

Welcome to %s! Please confirm your email address by opening the link below:

%s

The link is valid for 24 hours. If you didn't create an account, you can
safely ignore this email.

Best,
The %s Team`, name, appName, verifyURL, appName)

	return subject, body
}

func welcomeEmailTemplate(name, dashboardURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s", appName)
	body := fmt.Sprintf(`Hi %s,

Your email is verified and your account is ready. Head over to your
dashboard to create your first video:

%s

Best,
The %s Team`, name, dashboardURL, appName)

	return subject, body
}
