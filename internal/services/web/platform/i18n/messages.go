package i18n

var messagesEN = map[string]string{
	"app.name":    "Itemdesk",
	"nav.home":    "Dashboard",
	"nav.items":   "Items",
	"nav.logout":  "Log out",
	"nav.sign_in": "Signed in as %s",

	"login.title":         "Log In",
	"login.username":      "Email",
	"login.password":      "Password",
	"login.submit":        "Log In",
	"login.forgot":        "Forgot Password?",
	"login.signup_prompt": "Don't have an account?",
	"login.signup_link":   "Sign Up",

	"signup.title":            "Sign Up",
	"signup.full_name":        "Full Name",
	"signup.email":            "Email",
	"signup.password":         "Password",
	"signup.confirm_password": "Confirm Password",
	"signup.submit":           "Sign Up",
	"signup.login_prompt":     "Already have an account?",
	"signup.login_link":       "Log In",

	"recover.title":  "Password Recovery",
	"recover.help":   "A password recovery email will be sent to the registered account.",
	"recover.email":  "Email",
	"recover.submit": "Continue",

	"reset.title":            "Reset Password",
	"reset.help":             "Please enter your new password and confirm it to reset your password.",
	"reset.new_password":     "New Password",
	"reset.confirm_password": "Confirm Password",
	"reset.submit":           "Reset Password",

	"home.greeting": "Hi, %s 👋🏼",
	"home.welcome":  "Welcome back, nice to see you again!",

	"items.title":             "Items Management",
	"items.add":               "Add Item",
	"items.empty":             "You don't have any items yet",
	"items.empty_help":        "Add a new item to get started",
	"items.col_title":         "Title",
	"items.col_description":   "Description",
	"items.col_actions":       "Actions",
	"items.no_description":    "N/A",
	"items.field_title":       "Title",
	"items.field_description": "Description",
	"items.edit":              "Edit Item",
	"items.delete":            "Delete Item",
	"items.delete_confirm":    "This item will be permanently deleted. Are you sure? You will not be able to undo this action.",
	"items.save":              "Save",
	"items.cancel":            "Cancel",

	"notice.signup_confirm":   "Account created. Check your email for the confirmation code before logging in.",
	"notice.signup_success":   "Account created. You can log in now.",
	"notice.recovery_sent":    "Password recovery email sent successfully.",
	"notice.password_updated": "Password updated successfully.",
	"notice.item_created":     "Item created successfully.",
	"notice.item_updated":     "Item updated successfully.",
	"notice.item_deleted":     "The item was deleted successfully.",

	"error.generic":                  "Something went wrong.",
	"error.form.required":            "Please fill in all required fields.",
	"error.form.password_mismatch":   "The passwords do not match.",
	"error.form.origin":              "This form could not be verified. Reload the page and try again.",
	"error.rate_limited":             "Too many attempts. Please wait a moment and try again.",
	"error.reset.missing_params":     "This reset link is missing its code or username.",
	"error.auth.invalid_credentials": "Incorrect email or password.",
	"error.auth.user_exists":         "An account with this email already exists.",
	"error.auth.user_not_confirmed":  "Confirm your account before logging in.",
	"error.auth.invalid_password":    "The password does not meet the requirements.",
	"error.auth.invalid_username":    "Enter a valid email.",
	"error.auth.invalid_code":        "The reset code is invalid or has expired.",
	"error.auth.limit_exceeded":      "Too many attempts. Please try again later.",
	"error.auth.unsupported_flow":    "This account requires a sign-in step that is not supported.",
	"error.auth.unavailable":         "Sign-in is temporarily unavailable. Please try again.",
	"error.items.invalid_input":      "Title is required.",
	"error.items.not_found":          "Item not found.",
	"error.items.forbidden":          "You are not allowed to change this item.",
}

var messagesPTBR = map[string]string{
	"app.name":    "Itemdesk",
	"nav.home":    "Painel",
	"nav.items":   "Itens",
	"nav.logout":  "Sair",
	"nav.sign_in": "Conectado como %s",

	"login.title":         "Entrar",
	"login.username":      "E-mail",
	"login.password":      "Senha",
	"login.submit":        "Entrar",
	"login.forgot":        "Esqueceu a senha?",
	"login.signup_prompt": "Não tem uma conta?",
	"login.signup_link":   "Cadastre-se",

	"signup.title":            "Cadastro",
	"signup.full_name":        "Nome completo",
	"signup.email":            "E-mail",
	"signup.password":         "Senha",
	"signup.confirm_password": "Confirmar senha",
	"signup.submit":           "Cadastrar",
	"signup.login_prompt":     "Já tem uma conta?",
	"signup.login_link":       "Entrar",

	"recover.title":  "Recuperação de senha",
	"recover.help":   "Um e-mail de recuperação será enviado para a conta cadastrada.",
	"recover.email":  "E-mail",
	"recover.submit": "Continuar",

	"reset.title":            "Redefinir senha",
	"reset.help":             "Informe e confirme a nova senha para redefini-la.",
	"reset.new_password":     "Nova senha",
	"reset.confirm_password": "Confirmar senha",
	"reset.submit":           "Redefinir senha",

	"home.greeting": "Olá, %s 👋🏼",
	"home.welcome":  "Bem-vindo de volta!",

	"items.title":             "Gerenciamento de itens",
	"items.add":               "Adicionar item",
	"items.empty":             "Você ainda não tem itens",
	"items.empty_help":        "Adicione um item para começar",
	"items.col_title":         "Título",
	"items.col_description":   "Descrição",
	"items.col_actions":       "Ações",
	"items.no_description":    "N/D",
	"items.field_title":       "Título",
	"items.field_description": "Descrição",
	"items.edit":              "Editar item",
	"items.delete":            "Excluir item",
	"items.delete_confirm":    "Este item será excluído permanentemente. Tem certeza? Não será possível desfazer.",
	"items.save":              "Salvar",
	"items.cancel":            "Cancelar",

	"notice.signup_confirm":   "Conta criada. Verifique seu e-mail para obter o código de confirmação antes de entrar.",
	"notice.signup_success":   "Conta criada. Você já pode entrar.",
	"notice.recovery_sent":    "E-mail de recuperação enviado.",
	"notice.password_updated": "Senha atualizada com sucesso.",
	"notice.item_created":     "Item criado com sucesso.",
	"notice.item_updated":     "Item atualizado com sucesso.",
	"notice.item_deleted":     "O item foi excluído.",

	"error.generic":                  "Algo deu errado.",
	"error.form.required":            "Preencha todos os campos obrigatórios.",
	"error.form.password_mismatch":   "As senhas não coincidem.",
	"error.form.origin":              "Não foi possível verificar o formulário. Recarregue a página e tente novamente.",
	"error.rate_limited":             "Muitas tentativas. Aguarde um momento e tente novamente.",
	"error.reset.missing_params":     "Este link de redefinição não tem o código ou o usuário.",
	"error.auth.invalid_credentials": "E-mail ou senha incorretos.",
	"error.auth.user_exists":         "Já existe uma conta com este e-mail.",
	"error.auth.user_not_confirmed":  "Confirme sua conta antes de entrar.",
	"error.auth.invalid_password":    "A senha não atende aos requisitos.",
	"error.auth.invalid_username":    "Informe um e-mail válido.",
	"error.auth.invalid_code":        "O código de redefinição é inválido ou expirou.",
	"error.auth.limit_exceeded":      "Muitas tentativas. Tente novamente mais tarde.",
	"error.auth.unsupported_flow":    "Esta conta exige uma etapa de login não suportada.",
	"error.auth.unavailable":         "O login está temporariamente indisponível. Tente novamente.",
	"error.items.invalid_input":      "O título é obrigatório.",
	"error.items.not_found":          "Item não encontrado.",
	"error.items.forbidden":          "Você não pode alterar este item.",
}
