package http

import "html/template"

// PageTemplates devuelve las dos paginas HTML del gateway. El resto de
// la superficie HTTP es JSON o texto plano.
func PageTemplates() *template.Template {
	t := template.New("pages")
	template.Must(t.New("form").Parse(formPageHTML))
	template.Must(t.New("success").Parse(successPageHTML))
	return t
}

const formPageHTML = `<!DOCTYPE html>
<html>
  <head>
    <title>Account Registration</title>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <script src="https://challenges.cloudflare.com/turnstile/v0/api.js" async defer></script>
    <style>
      body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f7f7f7; margin: 0; padding: 0; display: flex; justify-content: center; align-items: center; min-height: 100vh; }
      .container { background-color: white; padding: 30px; border-radius: 10px; box-shadow: 0 4px 10px rgba(0, 0, 0, 0.1); max-width: 400px; width: 100%; box-sizing: border-box; }
      h2 { text-align: center; color: #333; font-size: 24px; margin-bottom: 10px; }
      form { display: flex; flex-direction: column; }
      label { font-size: 14px; color: #555; margin-bottom: 6px; }
      input[type="text"], input[type="email"], input[type="password"] { width: 100%; padding: 12px; margin: 8px 0; border: 1px solid #ddd; border-radius: 5px; box-sizing: border-box; }
      input[type="submit"] { width: 100%; padding: 12px; background-color: #4CAF50; color: white; border: none; border-radius: 5px; cursor: pointer; font-size: 16px; margin-top: 15px; }
      input[type="submit"]:disabled { background-color: #cccccc; cursor: not-allowed; }
      small { font-size: 12px; color: #777; }
      #stats { text-align: center; color: #666; font-size: 14px; margin-bottom: 20px; font-weight: bold; }
    </style>
  </head>
  <body>
    <div class="container">
      <h2>Account Registration</h2>
      <p id="stats">Loading availability...</p>

      <form action="/" method="POST">
        <label for="firstName">First name:</label>
        <input type="text" id="firstName" name="firstName" required>

        <label for="lastName">Last name:</label>
        <input type="text" id="lastName" name="lastName" required>

        <label for="username">Username:</label>
        <input type="text" id="username" name="username" required>
        <small>The suffix <strong>{{.DomainSuffix}}</strong> is appended automatically</small><br><br>

        <label for="password">Password:</label>
        <input type="password" id="password" name="password" required>

        <label for="recoveryEmail">Recovery email:</label>
        <input type="email" id="recoveryEmail" name="recoveryEmail" required>

        <label for="verificationCode">Invite code:</label>
        <input type="text" id="verificationCode" name="verificationCode" required>

        <div class="cf-turnstile" data-sitekey="{{.SiteKey}}"></div>

        <input type="submit" value="Register">
      </form>
    </div>

    <script>
      document.addEventListener('DOMContentLoaded', () => {
        const statsElement = document.getElementById('stats');
        const submitButton = document.querySelector('input[type="submit"]');

        fetch('/api/stats')
          .then(response => response.json())
          .then(data => {
            if (data.registered >= data.limit) {
              statsElement.textContent = 'Sorry, all registration spots are taken.';
              statsElement.style.color = 'red';
              submitButton.disabled = true;
            } else {
              statsElement.textContent = 'Spots used: ' + data.registered + ' / ' + data.limit;
            }
          })
          .catch(() => {
            statsElement.textContent = 'Could not load availability, try again later.';
            statsElement.style.color = 'orange';
          });
      });
    </script>
  </body>
</html>
`

const successPageHTML = `<!DOCTYPE html>
<html>
  <head>
    <title>Registration Complete</title>
    <meta http-equiv="refresh" content="3;url=https://accounts.google.com/ServiceLogin?Email={{.Email}}&continue=https://mail.google.com/mail/">
    <style>
      body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f7f7f7; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; }
      .message { background-color: white; padding: 20px; border-radius: 10px; box-shadow: 0 4px 10px rgba(0, 0, 0, 0.1); text-align: center; }
    </style>
  </head>
  <body>
    <div class="message">
      <h2>Registration complete</h2>
      <p>The account <strong>{{.Email}}</strong> was created.</p>
      <p>Redirecting to the sign-in page...</p>
    </div>
  </body>
</html>
`
