package i18n

var english = map[string]string{
	"error.notFound":          "The requested item could not be found.",
	"error.badRequest":        "The request could not be understood.",
	"error.internal":          "Something went wrong. Please try again.",
	"error.invalidTransition": "That action is not available right now.",
	"error.busy":              "Please wait for the current operation to finish.",
	"error.transient":         "A temporary problem occurred. Please try again.",
	"error.unauthorized":      "Please sign in to continue.",
	"error.rateLimited":       "Too many requests. Please slow down.",
	"error.payloadTooLarge":   "The request is too large.",

	"validation.required":  "This field is required.",
	"validation.email":     "Please enter a valid email address.",
	"validation.minLength": "This value is too short.",
	"validation.mismatch":  "The values do not match.",
	"validation.oneOf":     "Please choose one of the allowed options.",
	"validation.length":    "This value has the wrong length.",
	"validation.date":      "Please enter a date as YYYY-MM-DD.",
	"validation.invalid":   "Please check the highlighted fields.",

	"booking.missingInformation":     "Please fill in all required information.",
	"booking.unavailableDay":         "The doctor is not available on that day.",
	"booking.unavailableTime":        "That time is not available.",
	"booking.invalidAppointmentType": "Please choose in-person, video or phone.",
	"booking.paymentInFlight":        "Your payment is being processed.",
	"booking.paymentFailed":          "Payment failed. Please try again.",
	"booking.paymentCancelled":       "The payment was cancelled.",
	"booking.closed":                 "This booking is no longer open.",
	"booking.doctorNotFound":         "Doctor not found.",
	"booking.sessionNotFound":        "This booking has expired. Please start again.",
	"booking.confirmed":              "Appointment booked successfully!",
	"booking.acknowledged":           "Appointment {confirmation_id} has been added to your dashboard.",

	"verification.invalidContact":  "Please check your contact details.",
	"verification.invalidCode":     "Please enter the 6-digit code.",
	"verification.resendNotReady":  "You can request a new code once the timer ends.",
	"verification.wrongStage":      "That step is not available right now.",
	"verification.codeRejected":    "The code is not valid.",
	"verification.dispatchFailed":  "We could not send the code. Please try again.",
	"verification.codeSent":        "A verification code has been sent.",
	"verification.verified":        "Verification successful.",
	"verification.passwordUpdated": "Your password has been reset. Please sign in.",
	"verification.flowNotFound":    "This verification has expired. Please start again.",

	"auth.accountExists":      "An account with these details already exists.",
	"auth.invalidCredentials": "Invalid credentials.",

	"directory.doctorNotFound": "Doctor not found.",

	"profile.savedSuccess":    "Profile created successfully!",
	"profile.notFound":        "Please create your medical profile.",
	"profile.futureBirthDate": "Date of birth cannot be in the future.",
}

var french = map[string]string{
	"error.notFound":          "L'élément demandé est introuvable.",
	"error.badRequest":        "La requête est invalide.",
	"error.internal":          "Une erreur est survenue. Veuillez réessayer.",
	"error.invalidTransition": "Cette action n'est pas disponible pour le moment.",
	"error.busy":              "Veuillez patienter jusqu'à la fin de l'opération en cours.",
	"error.transient":         "Un problème temporaire est survenu. Veuillez réessayer.",
	"error.unauthorized":      "Veuillez vous connecter pour continuer.",
	"error.rateLimited":       "Trop de requêtes. Veuillez ralentir.",
	"error.payloadTooLarge":   "La requête est trop volumineuse.",

	"validation.required":  "Ce champ est obligatoire.",
	"validation.email":     "Veuillez saisir une adresse e-mail valide.",
	"validation.minLength": "Cette valeur est trop courte.",
	"validation.mismatch":  "Les valeurs ne correspondent pas.",
	"validation.oneOf":     "Veuillez choisir une des options proposées.",
	"validation.length":    "Cette valeur n'a pas la bonne longueur.",
	"validation.date":      "Veuillez saisir une date au format AAAA-MM-JJ.",
	"validation.invalid":   "Veuillez vérifier les champs indiqués.",

	"booking.missingInformation":     "Veuillez renseigner toutes les informations requises.",
	"booking.unavailableDay":         "Le médecin n'est pas disponible ce jour-là.",
	"booking.unavailableTime":        "Cet horaire n'est pas disponible.",
	"booking.invalidAppointmentType": "Veuillez choisir au cabinet, vidéo ou téléphone.",
	"booking.paymentInFlight":        "Votre paiement est en cours de traitement.",
	"booking.paymentFailed":          "Le paiement a échoué. Veuillez réessayer.",
	"booking.paymentCancelled":       "Le paiement a été annulé.",
	"booking.closed":                 "Cette réservation n'est plus ouverte.",
	"booking.doctorNotFound":         "Médecin introuvable.",
	"booking.sessionNotFound":        "Cette réservation a expiré. Veuillez recommencer.",
	"booking.confirmed":              "Rendez-vous réservé avec succès !",
	"booking.acknowledged":           "Le rendez-vous {confirmation_id} a été ajouté à votre tableau de bord.",

	"verification.invalidContact":  "Veuillez vérifier vos coordonnées.",
	"verification.invalidCode":     "Veuillez saisir le code à 6 chiffres.",
	"verification.resendNotReady":  "Vous pourrez demander un nouveau code à la fin du minuteur.",
	"verification.wrongStage":      "Cette étape n'est pas disponible pour le moment.",
	"verification.codeRejected":    "Le code n'est pas valide.",
	"verification.dispatchFailed":  "Impossible d'envoyer le code. Veuillez réessayer.",
	"verification.codeSent":        "Un code de vérification a été envoyé.",
	"verification.verified":        "Vérification réussie.",
	"verification.passwordUpdated": "Votre mot de passe a été réinitialisé. Veuillez vous connecter.",
	"verification.flowNotFound":    "Cette vérification a expiré. Veuillez recommencer.",

	"auth.accountExists":      "Un compte existe déjà avec ces informations.",
	"auth.invalidCredentials": "Identifiants invalides.",

	"directory.doctorNotFound": "Médecin introuvable.",

	"profile.savedSuccess":    "Profil créé avec succès !",
	"profile.notFound":        "Veuillez créer votre profil médical.",
	"profile.futureBirthDate": "La date de naissance ne peut pas être dans le futur.",
}
