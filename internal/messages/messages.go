// Package messages holds all user-visible texts of the bot.
// Texts are HTML-formatted for Telegram's HTML parse mode.
package messages

// MainOnline is the welcome shown during operating hours.
const MainOnline = `🌟 <b>Ми, фонд Сильні, надаємо безоплатну допомогу в будь-яких випадках сексуального насилля.</b>

Допомагаємо усім людям від 16 років, хто пережив насилля після 24 лютого 2022 року. Якщо ви цивільна або військова людина, жінка, чоловік або особа з ЛГБТІК+ спільноти, чи перебували ви у стосунках з людиною, яка вчинила насилля. Допомогу отримати ви можете незалежно, чи хочете звертатись в поліцію чи ні, чи є свідки й докази, чи ні.

Також не важливо хто саме вчинив сексуальне насилля: цивільна чи військова людина.

<b>Ви можете отримати допомогу за такими напрямами:</b>

🏥 якщо ви хочете потурбуватись про своє тіло і здоровʼя, ми допоможемо з пошуком хороших компетентних лікарів і сплатимо усі аналізи та обстеження, необхідні медичні витрати та подальше лікування.

🤝 якщо ви захочете почуватись краще та отримати психологічну підтримку – наші фахівці та фахівчині, які спеціалізуються саме на сексуальному насильстві під час війни, нададуть вам якісну психотерапевтичну допомогу: вислухають та підтримають. Ми не працюємо як гаряча лінія, тому для вас буде узгоджений курс психотерапії у методах з доведеною ефективністю з фахівцем з нашої команди.

⚖️ якщо ви захочете розповісти про скоєне насильство, ми та наші партнери допоможемо вам зі зверненням у поліцію, у документуванні злочину та юридичним супроводом.

🔒 <b>Усі послуги надаються конфіденційно та безоплатно.</b>

ℹ️ Якщо зараз ви нічого не хочете і не потребуєте нічиєї підтримки – це також нормально. Просто знайте, що ми залишаємось на зв'язку, і ви зможете прийти до нас у будь-який момент, коли знадобиться допомога.`

// MainOffline is the welcome shown outside operating hours.
const MainOffline = `🌙 <b>Дякуємо вам за довіру та силу до нас звернутися!</b>

⏰ На жаль, наша координаторка може приєднатися до розмови з вами лише з 09:00 до 20:00 за Київським часом.

❓ <b>Чи ви потребуєте термінової консультації?</b>`

// UrgentResources lists round-the-clock hotlines for immediate help.
const UrgentResources = `ℹ️ <b>Наш фонд не працює в режимі гарячої лінії. Але є люди й організації, які можуть спробувати вам допомогти у цей момент.</b>

📞 <b>Звертайтеся за номерами цілодобово:</b>

🔸 <code>1547</code> (з мобільного або стаціонарного телефонів) - урядовий контактний центр. Тут вам зможуть надати інформаційну консультацію, психологічну підтримку, реєстрацію відповідного звернення до державних органів. Цілодобово і безкоштовно.

🔸 <code>116 123</code> (з мобільного) або (зі стаціонарного) - Національна гаряча лінія з попередження домашнього насильства. Тут вам зможуть надати інформаційну, соціально-психологічну та юридичну підтримку. Цілодобово, безкоштовно, анонімно.`

// UrgentContinue asks whether to proceed with the intake after the hotlines.
const UrgentContinue = `💡 Якщо ви не бачите безпосередньої загрози вашому життю зараз, то ви можете сконтактувати із нашим координатором і ми спробуємо надати вам допомогу.

<b>Продовжити?</b>`

// Menu lists the six intake options.
const Menu = `📋 <b>Будь ласка, оберіть варіант, що ви потребуєте на цей момент:</b>

1️⃣ мені потрібна консультація щодо допомоги, яку я можу отримати

2️⃣ мені потрібна медична допомога

3️⃣ мені потрібна консультація юриста щодо скоєного проти мене злочину

4️⃣ мені потрібна психологічна допомога

5️⃣ я представляю організацію, медіа, тощо й хочу звʼязатися з вашою командою

6️⃣ допомога потрібна не мені, а моїй близькій людині чи підопічній моєї організації

ℹ️ Ви можете отримати допомогу як за одним із цих напрямків, так і кількома одночасно.

💡 Після розмови із нашим координатором, ви вільні обирати - прийняти допомогу від нас чи відмовитися від неї.`

// FormIntro precedes the first form question.
const FormIntro = `👋 <b>Наша координаторка обовʼязково приєднається до розмови починаючи з 9:00 за Київським часом. І ви разом зможете обговорити варіанти допомоги для вас.</b>

📝 Ми були б вам вдячні, якби ви могли ввести координаторку чат-боту у контекст того, що трапилося та відповісти на наступні питання.

💡 Так ми зможемо пришвидшити пошук рішення та/чи допомоги для вас.`

// Form step prompts.
const (
	AskName         = `👤 <b>Як можна до вас звертатися?</b>`
	AskAge          = `📅 <b>Скільки вам років?</b>`
	AskLocation     = `📍 <b>Де ви зараз перебуваєте?</b>`
	AskEventDetails = `🗺 <b>Де та коли сталась подія?</b>`
	AskHelpType     = `❓ <b>Якої саме допомоги з запропонованих ви потребуєте, на вашу думку, в першу чергу?</b>`
)

// AskDescription is the final form question.
const AskDescription = `ℹ️ <b>Ми надаємо безоплатно допомогу тим, хто пережив сексуальне насилля після 24 лютого 2022</b>, незалежно від того хто вчинив насилля - військова чи цивільна людина, чи є ви військовою чи цивільною людиною, чи перебували ви у стосунках з людиною яка вчинила насилля, чи хочете ви звертатись в поліцію чи ні, чи є свідки й докази, чи ні.

🔒 <b>Усі послуги надаються конфіденційно та безоплатно.</b>

📝 <b>Будь ласка, опишіть якої саме допомоги ви потребуєте.</b>`

// FormDone confirms the completed intake.
const FormDone = `✅ <b>Дякую вам за надані відповіді</b>, вони допоможуть одразу взяти ваш запит у роботу та пришвидшать отримання допомоги.

👩‍💼 Координаторка з'явиться у чаті у робочі години та одразу отримає детальний опис вашого випадку.`

// MediaContact is the reply for organisation/media representatives.
const MediaContact = `📢 <b>Якщо у вас є запит з приводу співпраці або роботи організації, будь ласка, напишіть нам листа на одну з електронних пошт нижче.</b>

📧 Для співпраці та запитань: <code>hello@sylni.org</code>
📧 Для ЗМІ: <code>communication@sylni.org</code>`

// ThirdPartyPrompt asks to describe a request on behalf of someone else.
const ThirdPartyPrompt = `🤝 <b>Будь ласка, опишіть ваш запит.</b>

👩‍💼 Координаторка звʼяжеться з вами у робочі години.`

// ContinuePrompt is sent after the form inactivity timeout fires.
const ContinuePrompt = `❓ <b>Продовжимо?</b>`

// Cancelled confirms that the current action was aborted.
const Cancelled = `❌ <b>Поточну дію скасовано.</b>
Щоб почати спочатку, використайте команду /start`

// FormCancelled confirms that the intake form was abandoned.
const FormCancelled = `❌ <b>Заповнення форми скасовано.</b>
Щоб почати спочатку, використайте команду /start`

// Forwarded acknowledges a message handed to the coordinators.
const Forwarded = `✅ <b>Ваше повідомлення успішно передано координатору.</b>
Очікуйте на відповідь.`

// MediaForwarded acknowledges a non-text message handed to the coordinators.
const MediaForwarded = `✅ <b>Ваше медіа повідомлення передано координатору</b>`

// Blocked tells a blocked user that access is restricted.
const Blocked = `❌ <b>На жаль, ваш доступ до бота обмежено.</b>`

// Validation notices.
const (
	NeedText        = `❌ <b>Будь ласка, використовуйте текстові повідомлення</b>`
	NeedNameText    = `❌ <b>Будь ласка, введіть ваше ім'я текстом</b>`
	NeedAgeNumber   = `❌ <b>Будь ласка, введіть коректний вік числом</b>`
	NeedGeoText     = `❌ <b>Будь ласка, введіть ваше місцезнаходження текстом</b>`
	NeedDetailsText = `❌ <b>Будь ласка, опишіть деталі події текстом</b>`
	NeedHelpText    = `❌ <b>Будь ласка, опишіть потрібну допомогу текстом</b>`
	NeedDescText    = `❌ <b>Будь ласка, надайте опис текстом</b>`
)

// ThrottledFmt is the throttle notice; the argument is the rate limit
// period in seconds.
const ThrottledFmt = `⚠️ <b>Ви надіслали забагато повідомлень.</b>
Будь ласка, зачекайте %d секунд перед наступним повідомленням.`

// InternalError is the generic notice for a failed store or transport
// operation; the failure itself goes to the logs.
const InternalError = `⚠️ <b>Сталася технічна помилка. Будь ласка, спробуйте ще раз.</b>`

// OperatorGreeting is shown to operators on /start.
const OperatorGreeting = `👋 <b>Вітаємо!</b>

Для перегляду доступних команд використовуйте /help
Ви можете відповідати на повідомлення користувачів та керувати їх доступом.`

// HelpBasic lists commands available to everyone.
const HelpBasic = `🤖 <b>Допомога з використання бота:</b>

📝 <b>Основні команди:</b>
/start - Почати спілкування
/help - Показати цю довідку
/cancel - Скасувати поточну дію
`

// HelpOperator lists operator-only commands; appended only for operators.
const HelpOperator = `
📋 <b>Команди для операторів:</b>
/block ID - Заблокувати звернення
/unblock ID - Розблокувати звернення
/blocked_list - Показати список заблокованих звернень
/form ID - Показати анкету звернення
`

// HelpFooter closes the help text.
const HelpFooter = `
ℹ️ <b>Додаткова інформація:</b>
- Для отримання допомоги виберіть відповідний пункт меню
- Всі ваші дані обробляються конфіденційно
- Координатори доступні з 9:00 до 20:00
- В неробочий час ви можете залишити своє звернення`

// ReplyNoRecipient is shown to an operator when the case reference
// cannot be recovered from the replied-to message.
const ReplyNoRecipient = `❌ <b>Не вдалося визначити отримувача відповіді</b>`

// Operator command feedback.
const (
	BlockOK        = `✅ <b>Звернення заблоковано:</b> <code>%s</code>`
	BlockAlready   = `ℹ️ Звернення <code>%s</code> вже заблоковано`
	UnblockOK      = `✅ <b>Звернення розблоковано:</b> <code>%s</code>`
	UnblockAlready = `ℹ️ Звернення <code>%s</code> не було заблоковано`
	CaseNotFound   = `❌ <b>Звернення не знайдено:</b> <code>%s</code>`
	CaseIDRequired = `❌ Вкажіть ідентифікатор звернення, наприклад: <code>%s 01/01/2025 1</code>`

	BlockedListHeader = `🚫 <b>Заблоковані звернення:</b>`
	BlockedListEmpty  = `ℹ️ Немає заблокованих звернень`

	ReplyDelivered        = `✅ Відповідь надіслано: <code>%s</code>`
	ReplyBlockedRecipient = `🚫 Звернення <code>%s</code> заблоковано, відповідь не надіслано`
	ReplyDeliveryFailed   = `❌ Не вдалося доставити відповідь: <code>%s</code>`
)

// Keyboard button labels.
const (
	BtnYes      = "Так"
	BtnNo       = "Ні"
	BtnContinue = "Продовжити"
)

// Menu button labels, row by row.
var MenuRows = [][]string{
	{"1️⃣ Консультація щодо допомоги", "2️⃣ Психологічна допомога"},
	{"3️⃣ Медична допомога", "4️⃣ Консультація юриста"},
	{"5️⃣ Представник організації/медіа", "6️⃣ Допомога для близької людини"},
}
