package authstate

// ModalMode selects which form the auth modal shows.
type ModalMode int

const (
	ModeLogin ModalMode = iota
	ModeRegister
)

func (m ModalMode) String() string {
	if m == ModeRegister {
		return "register"
	}
	return "login"
}

// Toggle returns the other mode.
func (m ModalMode) Toggle() ModalMode {
	if m == ModeRegister {
		return ModeLogin
	}
	return ModeRegister
}

// ModalView is the rendered state of the auth modal.
type ModalView struct {
	Mode             ModalMode
	Title            string
	ShowLoginForm    bool
	ShowRegisterForm bool
	SwitchPrompt     string
	SwitchLabel      string
}

// RenderModal builds the modal for mode.
func RenderModal(mode ModalMode) ModalView {
	if mode == ModeRegister {
		return ModalView{
			Mode:             ModeRegister,
			Title:            "Đăng ký",
			ShowRegisterForm: true,
			SwitchPrompt:     "Đã có tài khoản?",
			SwitchLabel:      "Đăng nhập ngay",
		}
	}
	return ModalView{
		Mode:          ModeLogin,
		Title:         "Đăng nhập",
		ShowLoginForm: true,
		SwitchPrompt:  "Chưa có tài khoản?",
		SwitchLabel:   "Đăng ký ngay",
	}
}
